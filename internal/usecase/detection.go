package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tunesphere/internal/domain"
	"tunesphere/internal/ports"
)

var (
	ErrDetectionUnavailable = errors.New("mood detection is unavailable")
	ErrUnknownMood          = errors.New("unknown mood")
)

// DetectionConfig controls the capture loop.
type DetectionConfig struct {
	Camera        ports.CameraConfig
	FrameInterval time.Duration
	SadRatio      float64
}

// DetectionController runs the camera loop, decides a mood once per
// activation and hands it to playback.
type DetectionController struct {
	camera   ports.Camera
	face     ports.Detector
	smile    ports.Detector
	playback ports.Playback
	events   ports.EventSink
	logger   *slog.Logger
	cfg      DetectionConfig

	// opMu serializes Start, Redetect, ChooseMood and Back.
	opMu sync.Mutex

	mu        sync.Mutex
	current   *activation
	idleState domain.DetectionState
	mood      domain.Mood
}

// NewDetectionController wires the capture loop. face and smile may be nil
// when the classifier models could not be loaded; Start then fails with
// ErrDetectionUnavailable while ChooseMood keeps working.
func NewDetectionController(
	camera ports.Camera,
	face ports.Detector,
	smile ports.Detector,
	playback ports.Playback,
	events ports.EventSink,
	logger *slog.Logger,
	cfg DetectionConfig,
) *DetectionController {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FrameInterval < 0 {
		cfg.FrameInterval = 0
	}
	if cfg.SadRatio <= 0 {
		cfg.SadRatio = DefaultSadRatio
	}
	return &DetectionController{
		camera:    camera,
		face:      face,
		smile:     smile,
		playback:  playback,
		events:    events,
		logger:    logger.With("component", "detection"),
		cfg:       cfg,
		idleState: domain.DetectionStateIdle,
	}
}

// Available reports whether both classifiers and a camera are wired.
func (c *DetectionController) Available() bool {
	return c.camera != nil && c.face != nil && c.smile != nil
}

// Start begins a new activation in the searching state. A running
// activation is stopped first.
func (c *DetectionController) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.startLocked(ctx, c.stopCurrent())
}

// Redetect stops the loop and playback and searches for a face again.
func (c *DetectionController) Redetect(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopCurrent()
	c.playback.Stop()
	return c.startLocked(ctx, true)
}

// ChooseMood overrides detection: the camera loop is stopped and the chosen
// mood's playlist starts.
func (c *DetectionController) ChooseMood(ctx context.Context, mood domain.Mood) error {
	parsed, ok := domain.ParseMood(string(mood))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	mood = parsed

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopCurrent()
	c.playback.Stop()

	c.mu.Lock()
	c.idleState = domain.DetectionStateLocked
	c.mood = mood
	c.mu.Unlock()

	c.logger.Info("mood chosen", "mood", mood)
	c.events.DetectionStateChanged(domain.DetectionStateLocked, domain.DetectionReasonManualMood)
	c.events.MoodChanged(mood, domain.MoodSourceManual)
	return c.playback.PlayMood(ctx, mood)
}

// Back stops the loop and playback and returns to idle.
func (c *DetectionController) Back() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopCurrent()
	c.playback.Stop()

	c.mu.Lock()
	c.idleState = domain.DetectionStateIdle
	c.mood = ""
	c.mu.Unlock()

	c.events.DetectionStateChanged(domain.DetectionStateIdle, domain.DetectionReasonStopped)
}

// State returns the detection state, the active activation id and the last
// decided mood.
func (c *DetectionController) State() (domain.DetectionState, string, domain.Mood) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return c.idleState, "", c.mood
	}
	return c.current.getState(), c.current.id, c.mood
}

func (c *DetectionController) startLocked(ctx context.Context, restarted bool) error {
	if !c.Available() {
		return ErrDetectionUnavailable
	}

	actCtx, cancel := context.WithCancel(ctx)
	act := newActivation(uuid.NewString(), cancel)

	c.mu.Lock()
	c.current = act
	c.idleState = domain.DetectionStateIdle
	c.mood = ""
	c.mu.Unlock()

	reason := domain.DetectionReasonStarted
	if restarted {
		reason = domain.DetectionReasonRestarted
	}
	c.logger.Info("activation started", "activation", act.id, "restarted", restarted)
	c.events.DetectionStateChanged(domain.DetectionStateSearching, reason)

	go c.runCapture(actCtx, act)
	return nil
}

// stopCurrent cancels the running activation and waits until the camera is
// released. It reports whether an activation was running.
func (c *DetectionController) stopCurrent() bool {
	c.mu.Lock()
	act := c.current
	c.current = nil
	if act != nil && act.getState() == domain.DetectionStateLocked {
		c.idleState = domain.DetectionStateLocked
	}
	c.mu.Unlock()

	if act == nil {
		return false
	}
	act.cancel()
	<-act.done
	return true
}

func (c *DetectionController) finish(act *activation, state domain.DetectionState, reason domain.DetectionReason) {
	act.cancel()
	act.setState(state)

	c.mu.Lock()
	owned := c.current == act
	if owned {
		c.current = nil
		c.idleState = state
	}
	c.mu.Unlock()

	if owned {
		c.events.DetectionStateChanged(state, reason)
	}
}

// lockActivation records mood for act unless act was already stopped or
// replaced. A detection that finishes after ChooseMood, Redetect or Back
// must not dispatch its mood.
func (c *DetectionController) lockActivation(act *activation, mood domain.Mood) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != act || !act.lock() {
		return false
	}
	c.mood = mood
	return true
}
