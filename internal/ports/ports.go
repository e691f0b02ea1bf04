package ports

import (
	"context"
	"image"

	"tunesphere/internal/domain"
)

// CameraConfig describes which device to capture from.
type CameraConfig struct {
	Device      string
	InputFormat string
}

// CameraSession is an open camera device. Close releases it.
type CameraSession interface {
	// Read blocks until the next frame. A failed read is transient.
	Read() (image.Image, error)
	Close() error
}

// Camera opens capture sessions.
type Camera interface {
	Open(ctx context.Context, cfg CameraConfig) (CameraSession, error)
}

// Detector is a pretrained cascade classifier.
type Detector interface {
	Detect(img image.Image) ([]image.Rectangle, error)
}

// AudioPlayer decodes and plays one file. Play blocks until the track ends
// or ctx is cancelled, always starting from the beginning of the file.
type AudioPlayer interface {
	Play(ctx context.Context, path string) error
}

// TrackInfoReader reads display metadata for a song file.
type TrackInfoReader interface {
	ReadTrackInfo(path string) (domain.TrackInfo, error)
}

// Playback is the control surface the detection loop dispatches moods to.
type Playback interface {
	PlayMood(ctx context.Context, mood domain.Mood) error
	Stop()
}

// CredentialStore persists user accounts.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string) (bool, error)
	Insert(ctx context.Context, username, email, password string) (bool, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	FrameCaptured(frame domain.Frame)
	DetectionStateChanged(state domain.DetectionState, reason domain.DetectionReason)
	MoodChanged(mood domain.Mood, source domain.MoodSource)
	NowPlaying(track domain.TrackInfo)
	PlaybackStateChanged(state domain.PlaybackState)
	TrackFinished(track domain.TrackInfo)
	SessionError(code domain.ErrorCode, detail string)
}
