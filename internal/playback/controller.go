package playback

import (
	"log/slog"
	"sync"

	"github.com/connorholly11/purpose-voice/internal/transport"
)

// Sink consumes the inbound audio. The gain is the effective volume at the
// moment the frame arrived: the requested volume, or 0 while muted.
type Sink interface {
	WriteFrame(frame []byte, gain float64) error
}

// Controller owns output volume and mute state and pumps whichever media
// stream is currently bound into the sink. Every operation is safe before a
// stream exists; state simply applies once one is bound.
type Controller struct {
	sink Sink
	log  *slog.Logger

	mu     sync.Mutex
	volume float64
	muted  bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewController(sink Sink, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		sink:   sink,
		log:    log,
		volume: 1.0,
	}
}

// SetVolume clamps to [0,1]. Setting exactly 0 mutes instead of storing a
// zero volume, so unmuting restores the last non-zero value.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v <= 0 {
		c.muted = true
		return
	}
	if v > 1 {
		v = 1
	}
	c.volume = v
	c.muted = false
}

func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
}

func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Controller) EffectiveVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		return 0
	}
	return c.volume
}

// BindStream replaces any previously bound stream. The handoff is best-effort:
// the old reader stops after its next frame.
func (c *Controller) BindStream(stream transport.MediaStream) {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
	}
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(stream, stopCh)
}

func (c *Controller) readLoop(stream transport.MediaStream, stopCh chan struct{}) {
	defer c.wg.Done()

	for {
		frame, err := stream.ReadFrame()
		if err != nil {
			return
		}

		select {
		case <-stopCh:
			return
		default:
		}

		if c.sink == nil {
			continue
		}

		if err := c.sink.WriteFrame(frame, c.EffectiveVolume()); err != nil {
			c.log.Debug("playback sink write failed", "error", err)
		}
	}
}

// Unbind detaches the current stream. Safe to call when nothing is bound.
func (c *Controller) Unbind() {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.mu.Unlock()
}
