package usecase

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tunesphere/internal/domain"
	"tunesphere/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type detectionEvent struct {
	state  domain.DetectionState
	reason domain.DetectionReason
}

type moodEvent struct {
	mood   domain.Mood
	source domain.MoodSource
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

type fakeEventSink struct {
	mu sync.Mutex

	frames     []uint64
	detections []detectionEvent
	moods      []moodEvent
	nowPlaying []domain.TrackInfo
	playback   []domain.PlaybackState
	finished   []domain.TrackInfo
	errors     []errEvent
}

func (f *fakeEventSink) FrameCaptured(frame domain.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame.Seq)
}

func (f *fakeEventSink) DetectionStateChanged(state domain.DetectionState, reason domain.DetectionReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detections = append(f.detections, detectionEvent{state: state, reason: reason})
}

func (f *fakeEventSink) MoodChanged(mood domain.Mood, source domain.MoodSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moods = append(f.moods, moodEvent{mood: mood, source: source})
}

func (f *fakeEventSink) NowPlaying(track domain.TrackInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, track)
}

func (f *fakeEventSink) PlaybackStateChanged(state domain.PlaybackState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playback = append(f.playback, state)
}

func (f *fakeEventSink) TrackFinished(track domain.TrackInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, track)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotFrames() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.frames...)
}

func (f *fakeEventSink) snapshotDetections() []detectionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]detectionEvent(nil), f.detections...)
}

func (f *fakeEventSink) snapshotMoods() []moodEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]moodEvent(nil), f.moods...)
}

func (f *fakeEventSink) snapshotPlayback() []domain.PlaybackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PlaybackState(nil), f.playback...)
}

func (f *fakeEventSink) snapshotFinished() []domain.TrackInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TrackInfo(nil), f.finished...)
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]errEvent(nil), f.errors...)
}

func (f *fakeEventSink) hasDetection(state domain.DetectionState, reason domain.DetectionReason) bool {
	for _, ev := range f.snapshotDetections() {
		if ev.state == state && ev.reason == reason {
			return true
		}
	}
	return false
}

// fakePlayer records every Play call. When block is set, Play runs until
// its context is cancelled.
type fakePlayer struct {
	block bool
	err   error

	started chan string
}

func newFakePlayer(block bool) *fakePlayer {
	return &fakePlayer{block: block, started: make(chan string, 32)}
}

func (f *fakePlayer) Play(ctx context.Context, path string) error {
	f.started <- path
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakePlayer) next(t *testing.T) string {
	t.Helper()
	select {
	case path := <-f.started:
		return path
	case <-time.After(2 * time.Second):
		t.Fatalf("player was not started")
		return ""
	}
}

type fakeInfoReader struct {
	title  string
	artist string
	err    error
}

func (f *fakeInfoReader) ReadTrackInfo(path string) (domain.TrackInfo, error) {
	if f.err != nil {
		return domain.TrackInfo{}, f.err
	}
	return domain.TrackInfo{Path: path, Title: f.title, Artist: f.artist}, nil
}

type fakeCamera struct {
	err error
	// failEvery makes every n-th read fail.
	failEvery int32

	opens  atomic.Int32
	closes atomic.Int32
	reads  atomic.Int32
}

func (f *fakeCamera) Open(_ context.Context, _ ports.CameraConfig) (ports.CameraSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opens.Add(1)
	return &fakeCameraSession{camera: f}, nil
}

type fakeCameraSession struct {
	camera *fakeCamera
}

func (s *fakeCameraSession) Read() (image.Image, error) {
	n := s.camera.reads.Add(1)
	if s.camera.failEvery > 0 && n%s.camera.failEvery == 0 {
		return nil, errFake
	}
	return image.NewRGBA(image.Rect(0, 0, 200, 200)), nil
}

func (s *fakeCameraSession) Close() error {
	s.camera.closes.Add(1)
	return nil
}

// fakeDetector returns rects or err. When release is set, the first call
// closes entered and blocks until release is closed.
type fakeDetector struct {
	mu    sync.Mutex
	rects []image.Rectangle
	err   error
	calls int

	panicMsg string
	entered  chan struct{}
	release  chan struct{}
}

func newBlockingDetector(rects ...image.Rectangle) *fakeDetector {
	return &fakeDetector{rects: rects, entered: make(chan struct{}), release: make(chan struct{})}
}

func (f *fakeDetector) Detect(_ image.Image) ([]image.Rectangle, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	rects := append([]image.Rectangle(nil), f.rects...)
	err := f.err
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if first && f.release != nil {
		close(f.entered)
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return rects, nil
}

func (f *fakeDetector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePlayback struct {
	mu    sync.Mutex
	moods []domain.Mood
	stops int
	err   error
}

func (f *fakePlayback) PlayMood(_ context.Context, mood domain.Mood) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moods = append(f.moods, mood)
	return f.err
}

func (f *fakePlayback) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakePlayback) snapshot() ([]domain.Mood, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Mood(nil), f.moods...), f.stops
}

type fakeCredentialStore struct {
	users     map[string]string
	emails    map[string]bool
	verifyErr error
	insertErr error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: map[string]string{}, emails: map[string]bool{}}
}

func (f *fakeCredentialStore) Verify(_ context.Context, username, password string) (bool, error) {
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	stored, ok := f.users[username]
	return ok && stored == password, nil
}

func (f *fakeCredentialStore) Insert(_ context.Context, username, email, password string) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, exists := f.users[username]; exists || f.emails[email] {
		return false, nil
	}
	f.users[username] = password
	f.emails[email] = true
	return true, nil
}

var errFake = errors.New("fake failure")
