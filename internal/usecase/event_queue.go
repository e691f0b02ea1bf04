package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"

	"tunesphere/internal/domain"
	"tunesphere/internal/ports"
)

// EventQueue decouples the capture and playback workers from the UI sink.
// It implements ports.EventSink; Run delivers everything to the wrapped sink
// from a single goroutine. Frames are latest-wins, other events are never
// dropped while Run is active.
type EventQueue struct {
	sink   ports.EventSink
	logger *slog.Logger

	events chan func(ports.EventSink)
	frames chan domain.Frame
	done   chan struct{}

	droppedFrames atomic.Uint64
}

func NewEventQueue(sink ports.EventSink, size int, logger *slog.Logger) *EventQueue {
	if size < 1 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventQueue{
		sink:   sink,
		logger: logger.With("component", "events"),
		events: make(chan func(ports.EventSink), size),
		frames: make(chan domain.Frame, 1),
		done:   make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. It must be called once.
func (q *EventQueue) Run(ctx context.Context) error {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case deliver := <-q.events:
			q.deliver(deliver)
		case frame := <-q.frames:
			q.deliver(func(sink ports.EventSink) { sink.FrameCaptured(frame) })
		}
	}
}

// DroppedFrames counts frames replaced before the UI consumed them.
func (q *EventQueue) DroppedFrames() uint64 {
	return q.droppedFrames.Load()
}

func (q *EventQueue) deliver(fn func(ports.EventSink)) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("event sink panicked", "panic", r)
		}
	}()
	fn(q.sink)
}

func (q *EventQueue) post(fn func(ports.EventSink)) {
	select {
	case q.events <- fn:
	case <-q.done:
	}
}

func (q *EventQueue) FrameCaptured(frame domain.Frame) {
	select {
	case q.frames <- frame:
		return
	default:
	}
	select {
	case <-q.frames:
		q.droppedFrames.Add(1)
	default:
	}
	select {
	case q.frames <- frame:
	default:
		q.droppedFrames.Add(1)
	}
}

func (q *EventQueue) DetectionStateChanged(state domain.DetectionState, reason domain.DetectionReason) {
	q.post(func(sink ports.EventSink) { sink.DetectionStateChanged(state, reason) })
}

func (q *EventQueue) MoodChanged(mood domain.Mood, source domain.MoodSource) {
	q.post(func(sink ports.EventSink) { sink.MoodChanged(mood, source) })
}

func (q *EventQueue) NowPlaying(track domain.TrackInfo) {
	q.post(func(sink ports.EventSink) { sink.NowPlaying(track) })
}

func (q *EventQueue) PlaybackStateChanged(state domain.PlaybackState) {
	q.post(func(sink ports.EventSink) { sink.PlaybackStateChanged(state) })
}

func (q *EventQueue) TrackFinished(track domain.TrackInfo) {
	q.post(func(sink ports.EventSink) { sink.TrackFinished(track) })
}

func (q *EventQueue) SessionError(code domain.ErrorCode, detail string) {
	q.post(func(sink ports.EventSink) { sink.SessionError(code, detail) })
}
