package audio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

const resampleQuality = 4

// output is the sound device. The speaker package is global, so all
// players share one initialised device.
type output interface {
	Init(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate) error {
	return speaker.Init(rate, rate.N(100*time.Millisecond))
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

// MP3Player decodes MP3 files and plays them on the default sound device.
type MP3Player struct {
	rate beep.SampleRate
	out  output

	initOnce sync.Once
	initErr  error
}

func NewMP3Player(sampleRate int) *MP3Player {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &MP3Player{rate: beep.SampleRate(sampleRate), out: speakerOutput{}}
}

// Play blocks until the file has been played to the end or ctx is cancelled.
// Cancellation silences the stream before returning.
func (p *MP3Player) Play(ctx context.Context, path string) error {
	p.initOnce.Do(func() {
		if err := p.out.Init(p.rate); err != nil {
			p.initErr = fmt.Errorf("failed to open sound device: %w", err)
		}
	})
	if p.initErr != nil {
		return p.initErr
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	stream, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	defer stream.Close()

	var source beep.Streamer = stream
	if format.SampleRate != p.rate {
		source = beep.Resample(resampleQuality, format.SampleRate, p.rate, stream)
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(source, beep.Callback(func() { close(done) }))}
	p.out.Play(ctrl)

	select {
	case <-done:
		if err := stream.Err(); err != nil {
			return fmt.Errorf("play %s: %w", path, err)
		}
		return nil
	case <-ctx.Done():
		p.out.Lock()
		ctrl.Streamer = nil
		p.out.Unlock()
		return ctx.Err()
	}
}
