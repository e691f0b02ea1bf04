package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"tunesphere/internal/ports"
)

var errEmptyFrame = errors.New("camera returned an empty frame")

// Camera opens webcams through OpenCV's VideoCapture.
type Camera struct{}

func NewCamera() *Camera {
	return &Camera{}
}

// Open accepts a numeric device index or a device path/URL.
func (c *Camera) Open(_ context.Context, cfg ports.CameraConfig) (ports.CameraSession, error) {
	var device interface{} = cfg.Device
	if cfg.Device == "" {
		device = 0
	} else if index, err := strconv.Atoi(cfg.Device); err == nil {
		device = index
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %v: %w", device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("camera %v is not available", device)
	}
	return &cameraSession{capture: capture, frame: gocv.NewMat()}, nil
}

type cameraSession struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool
}

func (s *cameraSession) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("camera closed")
	}
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, errEmptyFrame
	}
	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

func (s *cameraSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	frameErr := s.frame.Close()
	if err := s.capture.Close(); err != nil {
		return err
	}
	return frameErr
}
