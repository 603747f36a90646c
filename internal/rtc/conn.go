package rtc

import (
	"log/slog"
	"sync"

	"github.com/connorholly11/purpose-voice/internal/transport"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Conn is one live transport. It owns the control channel: inbound messages
// are decoded into typed events and delivered, in arrival order, on a buffered
// channel. Malformed messages never propagate past the message handler.
type Conn struct {
	peer *Peer
	log  *slog.Logger

	events    chan transport.Event
	opened    chan struct{}
	done      chan struct{}
	openOnce  sync.Once
	closeOnce sync.Once
}

func NewConn(peer *Peer, cfg Config, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}

	eventBufSize := cfg.EventBuffer
	if eventBufSize <= 0 {
		eventBufSize = 64
	}

	c := &Conn{
		peer:   peer,
		log:    log,
		events: make(chan transport.Event, eventBufSize),
		opened: make(chan struct{}),
		done:   make(chan struct{}),
	}

	dc := peer.DataChannel()

	dc.OnOpen(func() {
		c.openOnce.Do(func() {
			close(c.opened)
		})
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if msg.IsString {
			c.handleMessage(msg.Data)
		}
	})

	dc.OnClose(func() {
		c.Close()
	})

	peer.OnFailed(func() {
		c.Close()
	})

	return c
}

func (c *Conn) handleMessage(data []byte) {
	decoded, err := DecodeEvents(data)
	if err != nil {
		c.log.Debug("dropping malformed control message", "error", err)
		return
	}

	for _, ev := range decoded {
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) Events() <-chan transport.Event {
	return c.events
}

func (c *Conn) Opened() <-chan struct{} {
	return c.opened
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close is idempotent. The events channel is left open so an in-flight
// message handler can never send on a closed channel; consumers watch Done
// for the drop.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.peer.Close()
	})
	return err
}

// trackStream adapts a remote track into a MediaStream, depacketizing RTP so
// the playback side only sees encoded audio frames.
type trackStream struct {
	track *webrtc.TrackRemote
	buf   []byte
}

func newTrackStream(track *webrtc.TrackRemote) *trackStream {
	return &trackStream{
		track: track,
		buf:   make([]byte, 1500),
	}
}

func (t *trackStream) ReadFrame() ([]byte, error) {
	for {
		n, _, err := t.track.Read(t.buf)
		if err != nil {
			return nil, err
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(t.buf[:n]); err != nil {
			continue
		}

		frame := make([]byte, len(pkt.Payload))
		copy(frame, pkt.Payload)
		return frame, nil
	}
}
