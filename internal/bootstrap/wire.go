package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tunesphere/internal/audio"
	"tunesphere/internal/capture"
	"tunesphere/internal/config"
	"tunesphere/internal/ports"
	"tunesphere/internal/prefs"
	"tunesphere/internal/preview"
	"tunesphere/internal/store"
	"tunesphere/internal/usecase"
	"tunesphere/internal/vision"
)

const storeInitTimeout = 5 * time.Second

// Services is the assembled runtime graph.
type Services struct {
	Config config.Config
	Logger *slog.Logger

	Events    *usecase.EventQueue
	Playback  *usecase.PlaybackController
	Detection *usecase.DetectionController
	Auth      *usecase.AuthService
	Prefs     *prefs.Store
	Preview   *preview.Encoder

	// DetectionErr is set when the classifier models could not be loaded.
	// Detection is then disabled while the rest of the app keeps working.
	DetectionErr error

	detectors []*vision.CascadeDetector

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Build wires all backend dependencies for the current runtime. Events are
// delivered to sink from the event queue goroutine once Start is called.
func Build(sink ports.EventSink) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.LogLevel)

	credentials, err := store.New(cfg.Storage.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	initCtx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()
	if err := credentials.Init(initCtx); err != nil {
		logger.Warn("credential store unavailable", "backend", credentials.Kind(), "err", err)
	} else {
		logger.Info("credential store ready", "backend", credentials.Kind())
	}

	events := usecase.NewEventQueue(sink, cfg.UI.EventBuffer, logger)

	playback := usecase.NewPlaybackController(
		audio.NewMP3Player(cfg.Playback.SpeakerRate),
		audio.NewID3Reader(),
		events,
		logger,
		usecase.PlaybackConfig{SongsDir: cfg.Playback.SongsDir},
	)

	services := &Services{
		Config:   cfg,
		Logger:   logger,
		Events:   events,
		Playback: playback,
		Auth:     usecase.NewAuthService(credentials, logger),
		Prefs:    prefs.New(cfg.Storage.PreferencesPath),
		Preview:  preview.NewEncoder(cfg.UI.PreviewWidth, cfg.UI.PreviewHeight),
	}

	var face, smile ports.Detector
	faceDetector, faceErr := vision.NewFaceDetector(cfg.Detection.FaceCascade)
	smileDetector, smileErr := vision.NewSmileDetector(cfg.Detection.SmileCascade)
	if faceErr != nil || smileErr != nil {
		services.DetectionErr = errors.Join(faceErr, smileErr)
		logger.Warn("mood detection disabled", "err", services.DetectionErr)
		for _, d := range []*vision.CascadeDetector{faceDetector, smileDetector} {
			if d != nil {
				_ = d.Close()
			}
		}
	} else {
		face, smile = faceDetector, smileDetector
		services.detectors = []*vision.CascadeDetector{faceDetector, smileDetector}
	}

	services.Detection = usecase.NewDetectionController(
		newCamera(cfg.Camera),
		face,
		smile,
		playback,
		events,
		logger,
		usecase.DetectionConfig{
			Camera: ports.CameraConfig{
				Device:      cfg.Camera.Device,
				InputFormat: cfg.Camera.InputFormat,
			},
			FrameInterval: cfg.Detection.FrameInterval,
			SadRatio:      cfg.Detection.SadRatio,
		},
	)

	return services, nil
}

// NewLogger builds the text logger used across the app.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newCamera(cfg config.CameraConfig) ports.Camera {
	if cfg.Backend == config.CameraBackendFFMPEG {
		return capture.NewFFMPEGCamera(cfg.RecorderCommand)
	}
	return vision.NewCamera()
}

// Start runs the event queue and the playback worker until Shutdown.
func (s *Services) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.Events.Run(groupCtx) })
	group.Go(func() error { return s.Playback.Run(groupCtx) })

	s.cancel = cancel
	s.group = group
}

// Shutdown releases the camera, stops playback and waits for the workers.
func (s *Services) Shutdown() error {
	s.Detection.Back()
	s.Playback.Stop()

	s.mu.Lock()
	cancel, group := s.cancel, s.group
	s.cancel, s.group = nil, nil
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		err = group.Wait()
	}
	for _, d := range s.detectors {
		err = errors.Join(err, d.Close())
	}
	s.detectors = nil
	return err
}
