package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Timeslice is the length of one recorded chunk.
const Timeslice = 250 * time.Millisecond

// Chunk is one timeslice of recorded audio: the encoded bytes sent to the room plus
// the decoded mono samples for the live view.
type Chunk struct {
	Data    []byte
	Samples []float64
}

// Microphone produces chunks until ctx is done or the source runs dry, then closes the channel.
type Microphone interface {
	Start(ctx context.Context, timeslice time.Duration) (<-chan Chunk, error)
}

// Sender publishes a recording to the room.
type Sender interface {
	StartRecording() error
	SendAudioChunk(chunk []byte, first bool) error
}

type CaptureState int

const (
	Idle CaptureState = iota
	Capturing
)

// Capture records from a Microphone, streaming each chunk to the room and into the
// local sequence.
type Capture struct {
	mic      Microphone
	sender   Sender
	seq      *Sequence
	renderer *Renderer

	// FrameInterval paces the live view; zero disables it.
	FrameInterval time.Duration

	mu       sync.Mutex
	state    CaptureState
	cancel   context.CancelFunc
	done     chan struct{}
	analyser *Analyser
}

func NewCapture(mic Microphone, sender Sender, seq *Sequence, renderer *Renderer) *Capture {
	return &Capture{
		mic:      mic,
		sender:   sender,
		seq:      seq,
		renderer: renderer,
	}
}

func (c *Capture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Analyser is the live analysis node, nil while idle.
func (c *Capture) Analyser() *Analyser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyser
}

// Start opens the microphone and begins a new recording. While capturing it changes
// nothing and returns ErrAlreadyCapturing.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Capturing {
		return ErrAlreadyCapturing
	}

	ctx, cancel := context.WithCancel(ctx)
	chunks, err := c.mic.Start(ctx, Timeslice)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrDeviceAccess, err)
	}

	c.seq.Reset()
	if err := c.sender.StartRecording(); err != nil {
		log.Warn().Err(err).Str("module", "audio.capture").Msg("notify recording start")
	}

	c.state = Capturing
	c.cancel = cancel
	c.done = make(chan struct{})
	c.analyser = NewAnalyser(AnalyserWindow)
	go c.loop(ctx, chunks, c.analyser, c.done)

	log.Info().Str("module", "audio.capture").Msg("capture started")
	return nil
}

// Done is closed once the current recording has delivered its last chunk.
func (c *Capture) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Stop ends the recording, releases the live analysis and draws the final waveform.
// The microphone itself stays reusable for the next Start.
func (c *Capture) Stop() {
	c.mu.Lock()
	if c.state != Capturing {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done

	c.mu.Lock()
	c.state = Idle
	c.analyser = nil
	c.cancel = nil
	c.mu.Unlock()

	if c.renderer != nil && !c.seq.Empty() {
		c.renderer.DrawCombined(c.seq.Bytes())
	}
	log.Info().Str("module", "audio.capture").Int("chunks", c.seq.Len()).Msg("capture stopped")
}

func (c *Capture) loop(ctx context.Context, chunks <-chan Chunk, analyser *Analyser, done chan struct{}) {
	defer close(done)

	var frames <-chan time.Time
	if c.FrameInterval > 0 && c.renderer != nil {
		t := time.NewTicker(c.FrameInterval)
		defer t.Stop()
		frames = t.C
	}

	for {
		select {
		case ch, ok := <-chunks:
			if !ok {
				return
			}
			c.deliver(ch, analyser)
		case <-frames:
			if ctx.Err() == nil {
				c.renderer.DrawRealtime(analyser.Window())
			}
		}
	}
}

func (c *Capture) deliver(ch Chunk, analyser *Analyser) {
	if len(ch.Data) == 0 {
		return
	}
	first := c.seq.Empty()
	if err := c.sender.SendAudioChunk(ch.Data, first); err != nil {
		log.Warn().Err(err).Str("module", "audio.capture").Msg("send chunk")
	}
	c.seq.Append(ch.Data, first)
	analyser.Write(ch.Samples)
	if c.renderer != nil {
		c.renderer.DrawCombined(c.seq.Bytes())
	}
}
