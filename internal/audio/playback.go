package audio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Playback plays a chunk sequence against the wall clock and reports the playhead.
// Only one playback runs at a time; starting another invalidates the current one first.
type Playback struct {
	// FrameInterval is how often OnPlayhead fires.
	FrameInterval time.Duration
	OnPlayhead    func(pos time.Duration, ratio float64)
	OnEnded       func()

	mu      sync.Mutex
	current *playHandle
}

type playHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayback() *Playback {
	return &Playback{FrameInterval: 16 * time.Millisecond}
}

// Play starts data from the beginning.
func (p *Playback) Play(ctx context.Context, data []byte) error {
	return p.Seek(ctx, data, 0)
}

// Seek starts data at ratio of its duration, ratio being a horizontal click position
// over the canvas width.
func (p *Playback) Seek(ctx context.Context, data []byte, ratio float64) error {
	if len(data) == 0 {
		return ErrNothingToPlay
	}
	total, err := Duration(data)
	if err != nil {
		return err
	}
	if total <= 0 {
		return ErrNothingToPlay
	}
	ratio = min(max(ratio, 0), 1)
	offset := time.Duration(float64(total) * ratio)

	p.Pause()

	ctx, cancel := context.WithCancel(ctx)
	h := &playHandle{cancel: cancel, done: make(chan struct{})}
	p.mu.Lock()
	p.current = h
	p.mu.Unlock()

	go p.run(ctx, h, total, offset)
	log.Debug().Str("module", "audio.playback").Dur("total", total).Dur("offset", offset).Msg("play")
	return nil
}

// Pause stops the current playback. No playhead update starts after it returns, one
// already running finishes. It may be called from OnPlayhead and OnEnded.
func (p *Playback) Pause() {
	p.mu.Lock()
	h := p.current
	p.current = nil
	p.mu.Unlock()
	if h != nil {
		h.cancel()
	}
}

func (p *Playback) Close() { p.Pause() }

func (p *Playback) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Playback) run(ctx context.Context, h *playHandle, total, offset time.Duration) {
	defer close(h.done)

	interval := p.FrameInterval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if ctx.Err() != nil {
				return
			}
			pos := offset + now.Sub(started)
			if pos >= total {
				p.report(total, total)
				p.finish(ctx, h)
				return
			}
			p.report(pos, total)
		}
	}
}

func (p *Playback) report(pos, total time.Duration) {
	if p.OnPlayhead != nil {
		p.OnPlayhead(pos, float64(pos)/float64(total))
	}
}

// finish resets the playhead once the end is reached, unless the playback was
// stopped meanwhile.
func (p *Playback) finish(ctx context.Context, h *playHandle) {
	p.mu.Lock()
	if p.current == h {
		p.current = nil
	}
	p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	h.cancel()
	if p.OnPlayhead != nil {
		p.OnPlayhead(0, 0)
	}
	if p.OnEnded != nil {
		p.OnEnded()
	}
}
