package domain

import (
	"image"
	"strings"
	"time"
)

// Mood is the coarse emotional label that selects a playlist.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
)

// Moods lists every supported mood in display order.
var Moods = []Mood{MoodHappy, MoodSad, MoodNeutral}

// ParseMood accepts a mood name in any letter case.
func ParseMood(value string) (Mood, bool) {
	for _, mood := range Moods {
		if strings.EqualFold(string(mood), strings.TrimSpace(value)) {
			return mood, true
		}
	}
	return "", false
}

// Label returns the user-facing mood text.
func (m Mood) Label() string {
	switch m {
	case MoodHappy:
		return "Happy 😊"
	case MoodSad:
		return "Sad 😢"
	default:
		return "Neutral 😐"
	}
}

// MoodSource records whether a mood was detected or picked by the user.
type MoodSource string

const (
	MoodSourceDetected MoodSource = "detected"
	MoodSourceManual   MoodSource = "manual"
)

// DetectionState models one activation of the capture loop.
type DetectionState string

const (
	DetectionStateIdle      DetectionState = "idle"
	DetectionStateSearching DetectionState = "searching"
	DetectionStateLocked    DetectionState = "locked"
)

// DetectionReason provides a structured reason for detection transitions.
type DetectionReason string

const (
	DetectionReasonStarted     DetectionReason = "started"
	DetectionReasonRestarted   DetectionReason = "restarted"
	DetectionReasonFaceFound   DetectionReason = "face_found"
	DetectionReasonManualMood  DetectionReason = "manual_mood"
	DetectionReasonStopped     DetectionReason = "stopped"
	DetectionReasonCameraError DetectionReason = "camera_error"
)

// PlaybackState is the user-visible player state.
type PlaybackState string

const (
	PlaybackStateStopped PlaybackState = "stopped"
	PlaybackStatePlaying PlaybackState = "playing"
	PlaybackStatePaused  PlaybackState = "paused"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup   ErrorCode = "startup"
	ErrorCodeCamera    ErrorCode = "camera"
	ErrorCodeDetection ErrorCode = "detection"
	ErrorCodePlaylist  ErrorCode = "playlist"
	ErrorCodePlayback  ErrorCode = "playback"
	ErrorCodeAuth      ErrorCode = "auth"
	ErrorCodeTheme     ErrorCode = "theme"
)

// Frame is one captured camera image. It is never mutated after capture.
type Frame struct {
	Seq        uint64
	Image      image.Image
	CapturedAt time.Time
}

func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// DetectionResult is the per-frame outcome of the face and smile classifiers.
type DetectionResult struct {
	Face  *image.Rectangle
	Smile bool
}

// TrackInfo describes the song currently handed to the decoder.
type TrackInfo struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// Display prefers tag metadata and falls back to the file name.
func (t TrackInfo) Display() string {
	switch {
	case t.Title != "" && t.Artist != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return t.Name
	}
}

// AuthResult is returned by login and registration forms.
type AuthResult struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

// Status summarizes the current runtime status.
type Status struct {
	Detection  DetectionState `json:"detection"`
	Activation string         `json:"activation,omitempty"`
	Mood       Mood           `json:"mood,omitempty"`
	Playback   PlaybackState  `json:"playback"`
	NowPlaying string         `json:"nowPlaying"`
	Message    string         `json:"message,omitempty"`
}
