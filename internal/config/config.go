package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	CameraBackendGoCV   = "gocv"
	CameraBackendFFMPEG = "ffmpeg"
)

// Config stores runtime configuration for the desktop app.
type Config struct {
	Camera    CameraConfig
	Detection DetectionConfig
	Playback  PlaybackConfig
	Storage   StorageConfig
	UI        UIConfig
	LogLevel  slog.Level
}

type CameraConfig struct {
	Backend         string
	Device          string
	InputFormat     string
	RecorderCommand string
}

type DetectionConfig struct {
	FaceCascade   string
	SmileCascade  string
	FrameInterval time.Duration
	SadRatio      float64
}

type PlaybackConfig struct {
	SongsDir    string
	SpeakerRate int
}

type StorageConfig struct {
	DatabaseDSN     string
	PreferencesPath string
}

type UIConfig struct {
	PreviewWidth  int
	PreviewHeight int
	EventBuffer   int
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	backend := strings.ToLower(envOrDefault("TUNESPHERE_CAMERA_BACKEND", CameraBackendGoCV))
	if backend != CameraBackendGoCV && backend != CameraBackendFFMPEG {
		backend = CameraBackendGoCV
	}
	defaultDevice := "0"
	if backend == CameraBackendFFMPEG {
		defaultDevice = "/dev/video0"
	}

	cfg := Config{
		Camera: CameraConfig{
			Backend:         backend,
			Device:          envOrDefault("TUNESPHERE_CAMERA_DEVICE", defaultDevice),
			InputFormat:     envOrDefault("TUNESPHERE_CAMERA_INPUT_FORMAT", "v4l2"),
			RecorderCommand: envOrDefault("TUNESPHERE_FFMPEG_COMMAND", "ffmpeg"),
		},
		Detection: DetectionConfig{
			FaceCascade:   envOrDefault("TUNESPHERE_FACE_CASCADE", "haarcascade_frontalface_default.xml"),
			SmileCascade:  envOrDefault("TUNESPHERE_SMILE_CASCADE", "haarcascade_smile.xml"),
			FrameInterval: time.Duration(envOrDefaultInt("TUNESPHERE_FRAME_INTERVAL_MS", 15)) * time.Millisecond,
			SadRatio:      envOrDefaultFloat("TUNESPHERE_SAD_RATIO", 1.5),
		},
		Playback: PlaybackConfig{
			SongsDir:    envOrDefault("TUNESPHERE_SONGS_DIR", "songs"),
			SpeakerRate: envOrDefaultInt("TUNESPHERE_SPEAKER_RATE", 44100),
		},
		Storage: StorageConfig{
			DatabaseDSN:     envOrDefault("TUNESPHERE_DB", "tunesphere.db"),
			PreferencesPath: strings.TrimSpace(os.Getenv("TUNESPHERE_PREFS_FILE")),
		},
		UI: UIConfig{
			PreviewWidth:  envOrDefaultInt("TUNESPHERE_PREVIEW_WIDTH", 640),
			PreviewHeight: envOrDefaultInt("TUNESPHERE_PREVIEW_HEIGHT", 480),
			EventBuffer:   envOrDefaultInt("TUNESPHERE_EVENT_BUFFER", 64),
		},
		LogLevel: envOrDefaultLevel("TUNESPHERE_LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.Storage.PreferencesPath == "" {
		cfg.Storage.PreferencesPath = defaultPreferencesPath()
	}
	if cfg.Detection.FrameInterval < 0 {
		cfg.Detection.FrameInterval = 15 * time.Millisecond
	}
	if cfg.Detection.SadRatio <= 0 {
		cfg.Detection.SadRatio = 1.5
	}
	if cfg.Playback.SpeakerRate <= 0 {
		cfg.Playback.SpeakerRate = 44100
	}
	if cfg.UI.PreviewWidth <= 0 {
		cfg.UI.PreviewWidth = 640
	}
	if cfg.UI.PreviewHeight <= 0 {
		cfg.UI.PreviewHeight = 480
	}
	if cfg.UI.EventBuffer < 8 {
		cfg.UI.EventBuffer = 64
	}

	return cfg, nil
}

func defaultPreferencesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "preferences.json"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tunesphere", "preferences.json")
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultLevel(key string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
