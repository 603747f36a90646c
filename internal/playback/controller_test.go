package playback

import (
	"io"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	gains  []float64
}

func (s *recordingSink) WriteFrame(frame []byte, gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	s.frames = append(s.frames, cp)
	s.gains = append(s.gains, gain)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recordingSink) lastGain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gains[len(s.gains)-1]
}

// scriptedStream serves a fixed set of frames, then blocks until closed.
type scriptedStream struct {
	mu     sync.Mutex
	frames [][]byte
	done   chan struct{}
	once   sync.Once
}

func newScriptedStream(frames ...[]byte) *scriptedStream {
	return &scriptedStream{frames: frames, done: make(chan struct{})}
}

func (s *scriptedStream) ReadFrame() ([]byte, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		frame := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return frame, nil
	}
	s.mu.Unlock()

	<-s.done
	return nil, io.EOF
}

func (s *scriptedStream) close() {
	s.once.Do(func() { close(s.done) })
}

func waitCount(t *testing.T, sink *recordingSink, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sink.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, sink.count())
}

func TestController_DefaultState(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	if c.Volume() != 1.0 {
		t.Errorf("expected volume 1.0, got %v", c.Volume())
	}
	if c.Muted() {
		t.Error("should start unmuted")
	}
	if c.EffectiveVolume() != 1.0 {
		t.Errorf("expected effective volume 1.0, got %v", c.EffectiveVolume())
	}
}

func TestController_SetVolumeZeroMutes(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	c.SetVolume(0.7)
	c.SetVolume(0)

	if !c.Muted() {
		t.Error("volume 0 should mute")
	}
	if c.Volume() != 0.7 {
		t.Errorf("stored volume should survive a mute, got %v", c.Volume())
	}
	if c.EffectiveVolume() != 0 {
		t.Errorf("expected effective volume 0, got %v", c.EffectiveVolume())
	}

	c.ToggleMute()
	if c.EffectiveVolume() != 0.7 {
		t.Errorf("unmute should restore 0.7, got %v", c.EffectiveVolume())
	}
}

func TestController_SetVolumeUnmutes(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	c.ToggleMute()
	c.SetVolume(0.6)

	if c.Muted() {
		t.Error("setting a positive volume should unmute")
	}
	if c.EffectiveVolume() != 0.6 {
		t.Errorf("expected 0.6, got %v", c.EffectiveVolume())
	}
}

func TestController_VolumeClamped(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	c.SetVolume(3.5)
	if c.Volume() != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", c.Volume())
	}
	c.SetVolume(-2)
	if !c.Muted() {
		t.Error("negative volume should mute")
	}
	if c.Volume() != 1.0 {
		t.Errorf("negative volume must not overwrite the stored value, got %v", c.Volume())
	}
}

func TestController_OpsBeforeBindAreSafe(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	c.SetVolume(0.5)
	c.ToggleMute()
	c.Unbind()
	if c.EffectiveVolume() != 0 {
		t.Errorf("expected muted state to hold, got %v", c.EffectiveVolume())
	}
}

func TestController_PumpsFramesWithGain(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil)
	c.SetVolume(0.25)

	stream := newScriptedStream([]byte{1, 2}, []byte{3, 4})
	defer stream.close()
	c.BindStream(stream)

	waitCount(t, sink, 2)
	if sink.lastGain() != 0.25 {
		t.Errorf("expected gain 0.25, got %v", sink.lastGain())
	}

	c.Unbind()
}

func TestController_MutedFramesArriveAtZeroGain(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil)
	c.ToggleMute()

	stream := newScriptedStream([]byte{9})
	defer stream.close()
	c.BindStream(stream)

	waitCount(t, sink, 1)
	if sink.lastGain() != 0 {
		t.Errorf("muted playback should write at gain 0, got %v", sink.lastGain())
	}

	c.Unbind()
}

func TestController_BindReplacesStream(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil)

	first := newScriptedStream([]byte{1})
	second := newScriptedStream([]byte{2})
	defer first.close()
	defer second.close()

	c.BindStream(first)
	waitCount(t, sink, 1)

	c.BindStream(second)
	waitCount(t, sink, 2)

	// The first reader must be released once its stream ends.
	first.close()
	c.Unbind()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.frames[1][0] != 2 {
		t.Errorf("second frame should come from the replacement stream, got %v", sink.frames[1])
	}
}

func TestDiscardSink(t *testing.T) {
	if err := (DiscardSink{}).WriteFrame([]byte{1, 2, 3}, 1.0); err != nil {
		t.Fatalf("discard sink should never fail: %v", err)
	}
}
