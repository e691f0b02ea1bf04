package usecase

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"time"

	"tunesphere/internal/domain"
)

func (c *DetectionController) runCapture(ctx context.Context, act *activation) {
	defer close(act.done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("capture loop panicked", "activation", act.id, "panic", r)
			c.events.SessionError(domain.ErrorCodeDetection, fmt.Sprintf("mood detection crashed: %v", r))
			c.finish(act, domain.DetectionStateIdle, domain.DetectionReasonStopped)
		}
	}()

	session, err := c.camera.Open(ctx, c.cfg.Camera)
	if err != nil {
		c.logger.Error("camera unavailable", "activation", act.id, "err", err)
		c.events.SessionError(domain.ErrorCodeCamera, err.Error())
		c.finish(act, domain.DetectionStateIdle, domain.DetectionReasonCameraError)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			c.logger.Warn("camera release failed", "activation", act.id, "err", err)
		}
	}()

	c.logger.Info("capture started", "activation", act.id)
	var seq uint64
	for ctx.Err() == nil {
		img, err := session.Read()
		if err != nil {
			c.logger.Debug("frame read failed", "activation", act.id, "err", err)
		} else if img != nil {
			seq++
			frame := domain.Frame{Seq: seq, Image: img, CapturedAt: time.Now()}
			c.events.FrameCaptured(frame)
			if act.getState() == domain.DetectionStateSearching {
				c.detect(ctx, act, frame)
			}
		}

		if !sleepContext(ctx, c.cfg.FrameInterval) {
			break
		}
	}
	c.logger.Info("capture stopped", "activation", act.id, "frames", seq)
}

func (c *DetectionController) detect(ctx context.Context, act *activation, frame domain.Frame) {
	result, err := c.analyze(frame.Image)
	if err != nil {
		c.logger.Debug("detection skipped", "activation", act.id, "frame", frame.Seq, "err", err)
		return
	}
	mood, ok := moodForResult(result, c.cfg.SadRatio)
	if !ok || ctx.Err() != nil || !c.lockActivation(act, mood) {
		return
	}

	c.logger.Info("mood detected", "activation", act.id, "mood", mood, "face", result.Face.String(), "smile", result.Smile)
	c.events.DetectionStateChanged(domain.DetectionStateLocked, domain.DetectionReasonFaceFound)
	c.events.MoodChanged(mood, domain.MoodSourceDetected)

	if err := c.playback.PlayMood(ctx, mood); err != nil {
		c.logger.Debug("mood playback not started", "activation", act.id, "mood", mood, "err", err)
	}
}

func (c *DetectionController) analyze(img image.Image) (domain.DetectionResult, error) {
	faces, err := c.face.Detect(img)
	if err != nil {
		return domain.DetectionResult{}, fmt.Errorf("face detection: %w", err)
	}
	if len(faces) == 0 {
		return domain.DetectionResult{}, nil
	}

	face := faces[0]
	smiles, err := c.smile.Detect(cropImage(img, face))
	if err != nil {
		return domain.DetectionResult{}, fmt.Errorf("smile detection: %w", err)
	}
	return domain.DetectionResult{Face: &face, Smile: len(smiles) > 0}, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropImage returns the region of img inside rect without copying when the
// image type allows it.
func cropImage(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
