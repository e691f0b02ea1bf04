package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tunesphere/internal/domain"
	"tunesphere/internal/usecase"
	"tunesphere/internal/vision"
)

func TestBuildWithoutModelsDisablesDetection(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUNESPHERE_DB", filepath.Join(dir, "tunesphere.db"))
	t.Setenv("TUNESPHERE_PREFS_FILE", filepath.Join(dir, "prefs.json"))
	t.Setenv("TUNESPHERE_SONGS_DIR", filepath.Join(dir, "songs"))
	t.Setenv("TUNESPHERE_FACE_CASCADE", filepath.Join(dir, "missing_face.xml"))
	t.Setenv("TUNESPHERE_SMILE_CASCADE", filepath.Join(dir, "missing_smile.xml"))
	t.Setenv("TUNESPHERE_LOG_LEVEL", "error")

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !errors.Is(services.DetectionErr, vision.ErrModelUnavailable) {
		t.Fatalf("expected model error, got %v", services.DetectionErr)
	}
	if services.Detection.Available() {
		t.Fatalf("detection must be unavailable without models")
	}

	services.Start(context.Background())
	t.Cleanup(func() {
		if err := services.Shutdown(); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	})

	ctx := context.Background()
	if err := services.Detection.Start(ctx); !errors.Is(err, usecase.ErrDetectionUnavailable) {
		t.Fatalf("expected ErrDetectionUnavailable, got %v", err)
	}
	if res := services.Auth.Register(ctx, "alice", "alice@example.com", "pw"); !res.OK {
		t.Fatalf("register failed: %+v", res)
	}
	if res := services.Auth.Login(ctx, "alice", "pw"); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}
	if err := services.Playback.PlayMood(ctx, domain.MoodHappy); !errors.Is(err, usecase.ErrPlaylistUnavailable) {
		t.Fatalf("expected missing playlist, got %v", err)
	}
	if services.Prefs.Theme() != "light" {
		t.Fatalf("expected default theme")
	}
}

func TestBuildSelectsFFMPEGCamera(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUNESPHERE_DB", filepath.Join(dir, "tunesphere.db"))
	t.Setenv("TUNESPHERE_PREFS_FILE", filepath.Join(dir, "prefs.json"))
	t.Setenv("TUNESPHERE_CAMERA_BACKEND", "ffmpeg")
	t.Setenv("TUNESPHERE_LOG_LEVEL", "error")

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Config.Camera.Device != "/dev/video0" {
		t.Fatalf("unexpected ffmpeg device %q", services.Config.Camera.Device)
	}
	if err := services.Shutdown(); err != nil {
		t.Fatalf("shutdown without start: %v", err)
	}
}

type noopEventSink struct{}

func (noopEventSink) FrameCaptured(domain.Frame)                                        {}
func (noopEventSink) DetectionStateChanged(domain.DetectionState, domain.DetectionReason) {}
func (noopEventSink) MoodChanged(domain.Mood, domain.MoodSource)                        {}
func (noopEventSink) NowPlaying(domain.TrackInfo)                                       {}
func (noopEventSink) PlaybackStateChanged(domain.PlaybackState)                         {}
func (noopEventSink) TrackFinished(domain.TrackInfo)                                    {}
func (noopEventSink) SessionError(domain.ErrorCode, string)                             {}
