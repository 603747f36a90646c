package rtc

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// MicrophoneSource provides the outbound audio track. Acquire may prompt the
// user or fail when no capture device is available; a failed acquisition is a
// fatal connect error.
type MicrophoneSource interface {
	Acquire() (webrtc.TrackLocal, error)
	Release()
}

const oggPageSampleRate = 48000

// OggFileSource feeds the microphone track from an Ogg/Opus file, pacing
// writes by granule position. It stands in for device capture in the CLI and
// in tests.
type OggFileSource struct {
	path string

	mu     sync.Mutex
	file   *os.File
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewOggFileSource(path string) *OggFileSource {
	return &OggFileSource{path: path}
}

func (s *OggFileSource) Acquire() (webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return nil, shared.MicrophoneAccessError(errors.New("source already acquired"))
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, shared.MicrophoneAccessError(err)
	}

	ogg, _, err := oggreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, shared.MicrophoneAccessError(err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"microphone",
	)
	if err != nil {
		file.Close()
		return nil, shared.MicrophoneAccessError(err)
	}

	s.file = file
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.pump(ogg, track, s.stopCh)

	return track, nil
}

func (s *OggFileSource) pump(ogg *oggreader.OggReader, track *webrtc.TrackLocalStaticSample, stopCh chan struct{}) {
	defer s.wg.Done()

	var lastGranule uint64

	for {
		pageData, pageHeader, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			return
		}

		sampleCount := pageHeader.GranulePosition - lastGranule
		lastGranule = pageHeader.GranulePosition
		duration := time.Duration(sampleCount) * time.Second / oggPageSampleRate

		if err := track.WriteSample(media.Sample{Data: pageData, Duration: duration}); err != nil {
			return
		}

		select {
		case <-stopCh:
			return
		case <-time.After(duration):
		}
	}
}

func (s *OggFileSource) Release() {
	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	file := s.file
	s.file = nil
	s.mu.Unlock()

	s.wg.Wait()

	if file != nil {
		file.Close()
	}
}
