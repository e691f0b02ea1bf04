package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"tunesphere/internal/domain"
	"tunesphere/internal/ports"
)

var ErrPlaybackClosed = errors.New("playback worker is not running")

const noSong = "None"

// PlaybackConfig controls where mood playlists are read from.
type PlaybackConfig struct {
	SongsDir string
}

// PlaybackSnapshot is a point-in-time view of the player.
type PlaybackSnapshot struct {
	State        domain.PlaybackState
	Current      string
	Index        int
	PlaylistSize int
}

type playbackJob struct {
	path     string
	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}
}

// PlaybackController owns all playback state. Every control operation holds
// mu for its whole duration; decoding happens on the single worker started
// by Run.
type PlaybackController struct {
	player ports.AudioPlayer
	info   ports.TrackInfoReader
	events ports.EventSink
	logger *slog.Logger
	cfg    PlaybackConfig

	jobs       chan *playbackJob
	workerDone chan struct{}

	mu       sync.Mutex
	state    domain.PlaybackState
	playlist []string
	index    int
	current  string
	active   *playbackJob
}

func NewPlaybackController(
	player ports.AudioPlayer,
	info ports.TrackInfoReader,
	events ports.EventSink,
	logger *slog.Logger,
	cfg PlaybackConfig,
) *PlaybackController {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SongsDir == "" {
		cfg.SongsDir = "songs"
	}
	return &PlaybackController{
		player:     player,
		info:       info,
		events:     events,
		logger:     logger.With("component", "playback"),
		cfg:        cfg,
		jobs:       make(chan *playbackJob, 1),
		workerDone: make(chan struct{}),
		state:      domain.PlaybackStateStopped,
	}
}

// Run is the playback worker. It must be called exactly once and returns
// when ctx is cancelled.
func (c *PlaybackController) Run(ctx context.Context) error {
	defer close(c.workerDone)
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-c.jobs:
			c.runJob(ctx, job)
		}
	}
}

func (c *PlaybackController) runJob(workerCtx context.Context, job *playbackJob) {
	defer close(job.finished)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("decoder panicked", "path", job.path, "panic", r)
			c.events.SessionError(domain.ErrorCodePlayback, fmt.Sprintf("playback crashed: %v", r))
		}
	}()

	if job.ctx.Err() != nil {
		return
	}
	stopOnShutdown := context.AfterFunc(workerCtx, job.cancel)
	defer stopOnShutdown()

	track := c.describe(job.path)
	c.logger.Info("playing", "path", job.path)
	c.events.NowPlaying(track)

	err := c.player.Play(job.ctx, job.path)
	switch {
	case job.ctx.Err() != nil:
	case err != nil:
		c.logger.Warn("playback failed", "path", job.path, "err", err)
		c.events.SessionError(domain.ErrorCodePlayback, fmt.Sprintf("failed to play %s: %v", track.Name, err))
	default:
		c.events.TrackFinished(track)
	}
}

// PlayMood stops the current track and starts the first song of the mood's
// playlist. A missing or empty folder is logged and reported and leaves the
// player exactly as it was.
func (c *PlaybackController) PlayMood(_ context.Context, mood domain.Mood) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := moodDir(c.cfg.SongsDir, mood)
	playlist, err := loadPlaylist(dir)
	if err != nil {
		c.logger.Warn("no songs for mood", "mood", mood, "dir", dir, "err", err)
		c.events.SessionError(domain.ErrorCodePlaylist, fmt.Sprintf("No songs found for %s mood in %s", mood, dir))
		return err
	}

	c.stopLocked()
	c.playlist = playlist
	c.index = 0
	return c.startLocked(c.playlist[c.index])
}

// Next advances circularly through the current playlist.
func (c *PlaybackController) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.playlist) == 0 {
		return nil
	}
	c.stopLocked()
	c.index = (c.index + 1) % len(c.playlist)
	return c.startLocked(c.playlist[c.index])
}

// Pause stops the decoder but keeps the current song for Resume.
func (c *PlaybackController) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.PlaybackStatePlaying || c.current == "" {
		return
	}
	c.stopLocked()
	c.setStateLocked(domain.PlaybackStatePaused)
}

// Resume restarts the paused song from its beginning. The decoder cannot
// seek, so the previous position is not kept.
func (c *PlaybackController) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.PlaybackStatePaused || c.current == "" {
		return nil
	}
	return c.startLocked(c.current)
}

// Stop halts playback. The playlist and current song are kept.
func (c *PlaybackController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.setStateLocked(domain.PlaybackStateStopped)
}

// CurrentSongName returns the file name of the current song or "None".
func (c *PlaybackController) CurrentSongName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return noSong
	}
	return filepath.Base(c.current)
}

// Snapshot returns the current playback state.
func (c *PlaybackController) Snapshot() PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PlaybackSnapshot{
		State:        c.state,
		Current:      c.current,
		Index:        c.index,
		PlaylistSize: len(c.playlist),
	}
}

func (c *PlaybackController) startLocked(path string) error {
	ctx, cancel := context.WithCancel(context.Background())
	job := &playbackJob{path: path, ctx: ctx, cancel: cancel, finished: make(chan struct{})}

	select {
	case <-c.workerDone:
		cancel()
		return ErrPlaybackClosed
	default:
	}
	select {
	case c.jobs <- job:
	case <-c.workerDone:
		cancel()
		return ErrPlaybackClosed
	}

	c.active = job
	c.current = path
	c.setStateLocked(domain.PlaybackStatePlaying)
	return nil
}

// stopLocked cancels the active job and waits until the decoder returned.
// It reports whether a job was active.
func (c *PlaybackController) stopLocked() bool {
	job := c.active
	if job == nil {
		return false
	}
	c.active = nil
	job.cancel()
	select {
	case <-job.finished:
	case <-c.workerDone:
	}
	return true
}

func (c *PlaybackController) setStateLocked(state domain.PlaybackState) {
	if c.state == state {
		return
	}
	c.state = state
	c.events.PlaybackStateChanged(state)
}

func (c *PlaybackController) describe(path string) domain.TrackInfo {
	track := domain.TrackInfo{Path: path, Name: filepath.Base(path)}
	if c.info == nil {
		return track
	}
	info, err := c.info.ReadTrackInfo(path)
	if err != nil {
		c.logger.Debug("no track metadata", "path", path, "err", err)
		return track
	}
	track.Title = info.Title
	track.Artist = info.Artist
	return track
}
