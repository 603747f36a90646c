package playback

import (
	"encoding/binary"
	"io"
	"sync"

	"gopkg.in/hraban/opus.v2"
)

const (
	sampleRate = 48000
	channels   = 1
	frameSize  = sampleRate * 20 / 1000
)

// PCMSink decodes opus frames to mono 48kHz PCM, applies the gain, and writes
// little-endian int16 samples to w. Frames arriving at gain 0 still go
// through the decoder so its state stays continuous across mutes.
type PCMSink struct {
	mu      sync.Mutex
	decoder *opus.Decoder
	w       io.Writer
	pcm     []int16
	out     []byte
}

func NewPCMSink(w io.Writer) (*PCMSink, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &PCMSink{
		decoder: dec,
		w:       w,
		pcm:     make([]int16, frameSize*channels),
		out:     make([]byte, frameSize*channels*2),
	}, nil
}

func (s *PCMSink) WriteFrame(frame []byte, gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.decoder.Decode(frame, s.pcm)
	if err != nil {
		return err
	}

	samples := s.pcm[:n*channels]
	for i, sample := range samples {
		scaled := float64(sample) * gain
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(s.out[i*2:], uint16(int16(scaled)))
	}

	_, err = s.w.Write(s.out[:len(samples)*2])
	return err
}

// DiscardSink drops every frame. Used when the caller only wants transcripts.
type DiscardSink struct{}

func (DiscardSink) WriteFrame([]byte, float64) error {
	return nil
}
