package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"tunesphere/internal/bootstrap"
	"tunesphere/internal/domain"
	"tunesphere/internal/usecase"
)

const (
	eventFrame      = "tunesphere:frame"
	eventMood       = "tunesphere:mood"
	eventDetection  = "tunesphere:detection"
	eventNowPlaying = "tunesphere:nowplaying"
	eventPlayback   = "tunesphere:playback"
	eventError      = "tunesphere:error"
)

var (
	ErrNotSignedIn  = errors.New("please log in first")
	ErrMoodRequired = errors.New("no mood selected")
)

const selectMoodPrompt = "Please select a mood first!"

// App is the Wails application root.
type App struct {
	ctx context.Context

	services *bootstrap.Services
	logger   *slog.Logger
	bootErr  error

	mu         sync.Mutex
	user       string
	moodSource domain.MoodSource
	theme      string
}

func NewApp() *App {
	return &App{logger: slog.Default()}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.logger = services.Logger
	a.theme = services.Prefs.Theme()
	services.Start(ctx)

	if services.DetectionErr != nil {
		a.showDialog(runtime.WarningDialog, "Mood detection unavailable",
			"Face models could not be loaded, choose a mood manually.\n\n"+services.DetectionErr.Error())
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.services == nil {
		return
	}
	if err := a.services.Shutdown(); err != nil {
		a.logger.Warn("shutdown incomplete", "err", err)
	}
}

// Login checks credentials and opens the mood screen on success.
func (a *App) Login(username, password string) domain.AuthResult {
	if err := a.requireReady(); err != nil {
		return domain.AuthResult{Message: err.Error()}
	}
	result := a.services.Auth.Login(a.ctx, username, password)
	if result.OK {
		a.mu.Lock()
		a.user = result.Username
		a.mu.Unlock()
	}
	return result
}

// Register creates a local account.
func (a *App) Register(username, email, password string) domain.AuthResult {
	if err := a.requireReady(); err != nil {
		return domain.AuthResult{Message: err.Error()}
	}
	return a.services.Auth.Register(a.ctx, username, email, password)
}

// Logout stops the camera and music and forgets the signed-in user.
func (a *App) Logout() {
	if a.services != nil {
		a.services.Detection.Back()
	}
	a.mu.Lock()
	a.user = ""
	a.moodSource = ""
	a.mu.Unlock()
}

// StartDetection opens the camera and searches for a face.
func (a *App) StartDetection() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	err := a.services.Detection.Start(a.ctx)
	if errors.Is(err, usecase.ErrDetectionUnavailable) {
		if a.services.DetectionErr != nil {
			err = fmt.Errorf("%w: %w", err, a.services.DetectionErr)
		}
		a.showDialog(runtime.ErrorDialog, "Mood detection unavailable", err.Error())
	}
	return err
}

// Redetect restarts face detection and stops the music.
func (a *App) Redetect() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	return a.services.Detection.Redetect(a.ctx)
}

// Back leaves the mood screen.
func (a *App) Back() {
	if a.services == nil {
		return
	}
	a.services.Detection.Back()
}

// ChooseMood plays a mood picked from the dropdown instead of the camera.
func (a *App) ChooseMood(mood string) error {
	if err := a.requireUser(); err != nil {
		return err
	}
	if strings.TrimSpace(mood) == "" {
		a.showDialog(runtime.WarningDialog, "TuneSphere", selectMoodPrompt)
		return ErrMoodRequired
	}
	err := a.services.Detection.ChooseMood(a.ctx, domain.Mood(mood))
	if errors.Is(err, usecase.ErrPlaylistUnavailable) {
		return nil
	}
	return err
}

// Play resumes a paused song from its beginning.
func (a *App) Play() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	return a.services.Playback.Resume()
}

func (a *App) Pause() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	a.services.Playback.Pause()
	return nil
}

func (a *App) Next() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	return a.services.Playback.Next()
}

func (a *App) Stop() error {
	if err := a.requireUser(); err != nil {
		return err
	}
	a.services.Playback.Stop()
	return nil
}

// GetTheme returns "light" or "dark".
func (a *App) GetTheme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.theme == "" {
		return "light"
	}
	return a.theme
}

// ToggleTheme switches the stylesheet and remembers the choice.
func (a *App) ToggleTheme() string {
	if a.services == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.theme = toggledTheme(a.theme)
		return a.theme
	}
	theme, err := a.services.Prefs.ToggleTheme()
	if err != nil {
		a.logger.Warn("theme not saved", "err", err)
		a.SessionError(domain.ErrorCodeTheme, err.Error())
	}
	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()
	return theme
}

// GetStatus returns a snapshot for the mood screen.
func (a *App) GetStatus() domain.Status {
	if a.services == nil {
		status := domain.Status{
			Detection:  domain.DetectionStateIdle,
			Playback:   domain.PlaybackStateStopped,
			NowPlaying: "None",
		}
		if a.bootErr != nil {
			status.Message = a.bootErr.Error()
		}
		return status
	}

	state, activation, mood := a.services.Detection.State()
	snap := a.services.Playback.Snapshot()
	a.mu.Lock()
	source := a.moodSource
	a.mu.Unlock()

	return domain.Status{
		Detection:  state,
		Activation: activation,
		Mood:       mood,
		Playback:   snap.State,
		NowPlaying: a.services.Playback.CurrentSongName(),
		Message:    statusMessage(state, mood, source),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) requireUser() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == "" {
		return ErrNotSignedIn
	}
	return nil
}

func (a *App) showDialog(kind runtime.DialogType, title, message string) {
	if a.ctx == nil {
		return
	}
	if _, err := runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
		Type:    kind,
		Title:   title,
		Message: message,
	}); err != nil {
		a.logger.Warn("dialog failed", "title", title, "err", err)
	}
}

// FrameCaptured sends the scaled camera frame to the preview.
func (a *App) FrameCaptured(frame domain.Frame) {
	if a.ctx == nil || a.services == nil {
		return
	}
	url, err := a.services.Preview.DataURL(frame.Image)
	if err != nil {
		a.logger.Debug("preview skipped", "frame", frame.Seq, "err", err)
		return
	}
	runtime.EventsEmit(a.ctx, eventFrame, map[string]any{
		"seq":   frame.Seq,
		"image": url,
	})
}

// DetectionStateChanged emits detection lifecycle updates to the frontend.
func (a *App) DetectionStateChanged(state domain.DetectionState, reason domain.DetectionReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDetection, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": detectionMessage(reason),
	})
}

func (a *App) MoodChanged(mood domain.Mood, source domain.MoodSource) {
	a.mu.Lock()
	a.moodSource = source
	a.mu.Unlock()
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMood, map[string]string{
		"mood":    string(mood),
		"source":  string(source),
		"label":   mood.Label(),
		"message": moodMessage(mood, source),
	})
}

func (a *App) NowPlaying(track domain.TrackInfo) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNowPlaying, map[string]string{
		"name":    track.Name,
		"title":   track.Title,
		"artist":  track.Artist,
		"message": "Now Playing: " + track.Display(),
	})
}

func (a *App) PlaybackStateChanged(state domain.PlaybackState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPlayback, map[string]string{"state": string(state)})
}

// TrackFinished is logged only; playback state is driven by the controls.
func (a *App) TrackFinished(track domain.TrackInfo) {
	a.logger.Debug("track finished", "name", track.Name)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func detectionMessage(reason domain.DetectionReason) string {
	switch reason {
	case domain.DetectionReasonStarted, domain.DetectionReasonRestarted:
		return "Detecting mood..."
	case domain.DetectionReasonFaceFound:
		return "Face detected"
	case domain.DetectionReasonManualMood:
		return "Mood selected manually"
	case domain.DetectionReasonStopped:
		return "Detection stopped"
	case domain.DetectionReasonCameraError:
		return "Camera unavailable"
	default:
		return ""
	}
}

func moodMessage(mood domain.Mood, source domain.MoodSource) string {
	if source == domain.MoodSourceManual {
		return "Selected Mood: " + mood.Label() + " 🎵"
	}
	return "Detected Mood: " + mood.Label()
}

func statusMessage(state domain.DetectionState, mood domain.Mood, source domain.MoodSource) string {
	switch {
	case state == domain.DetectionStateSearching:
		return "Detecting mood..."
	case state == domain.DetectionStateLocked && mood != "":
		return moodMessage(mood, source)
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCamera:
		return "Camera unavailable"
	case domain.ErrorCodeDetection:
		return "Mood detection failed"
	case domain.ErrorCodePlaylist:
		if detail != "" {
			return detail
		}
		return "No songs found"
	case domain.ErrorCodePlayback:
		return "Playback failed"
	case domain.ErrorCodeAuth:
		return "Account error"
	case domain.ErrorCodeTheme:
		return "Theme could not be saved"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

func toggledTheme(theme string) string {
	if theme == "dark" {
		return "light"
	}
	return "dark"
}
