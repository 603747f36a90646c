package voicesession

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/connorholly11/purpose-voice/internal/playback"
	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/connorholly11/purpose-voice/internal/transport"
	"github.com/google/uuid"
)

// Callbacks are the caller-facing hooks. They are invoked from a single
// dispatcher goroutine per session, so invocations never overlap and arrive in
// emission order.
type Callbacks struct {
	OnPartialTranscript   func(text string)
	OnCompletedTranscript func(text string)
	OnPartialResponse     func(text string)
	OnCompletedResponse   func(text string)
	OnStatusChange        func(status Status, errMessage string)
}

type Config struct {
	Voice          string
	Tokens         transport.TokenSource
	Dialer         transport.Dialer
	Playback       *playback.Controller
	Segmenter      SegmenterConfig
	Callbacks      Callbacks
	ConnectTimeout time.Duration
	Log            *slog.Logger
}

// Session composes token fetch, transport negotiation, event decoding,
// utterance segmentation and playback behind start/stop/mute/volume. One
// session is live at a time; Stop is idempotent, effective mid-negotiation,
// and must not be called from inside a session callback.
type Session struct {
	cfg Config
	log *slog.Logger

	mu         sync.Mutex
	status     Status
	errMessage string
	attemptID  string
	sessionID  string
	cancel     context.CancelFunc
	conn       transport.Connection
	seg        *Segmenter
	isSpeaking bool

	stopped atomic.Bool
	wg      sync.WaitGroup
}

func New(cfg Config) *Session {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	return &Session{
		cfg:    cfg,
		log:    log,
		status: StatusIdle,
	}
}

// Start begins the connect sequence asynchronously. The only error returned
// directly is ErrAlreadyConnected; everything else surfaces through the
// status observable. A failed or stopped session may be started again.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status.live() {
		s.mu.Unlock()
		return shared.ErrAlreadyConnected
	}

	s.status = StatusRequestingToken
	s.errMessage = ""
	s.isSpeaking = false
	s.seg = NewSegmenter(s.cfg.Segmenter)
	s.attemptID = uuid.New().String()
	s.stopped.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	seg := s.seg
	cb := s.cfg.Callbacks.OnStatusChange
	s.mu.Unlock()

	if cb != nil {
		cb(StatusRequestingToken, "")
	}

	s.wg.Add(1)
	go s.connect(ctx, seg)

	return nil
}

func (s *Session) connect(ctx context.Context, seg *Segmenter) {
	defer s.wg.Done()

	s.mu.Lock()
	attemptID := s.attemptID
	s.mu.Unlock()

	cred, err := s.cfg.Tokens.Mint(ctx, s.cfg.Voice)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(shared.TokenFetchError(err))
		return
	}

	s.mu.Lock()
	s.sessionID = cred.SessionID
	s.mu.Unlock()

	log := s.log.With("attempt_id", attemptID, "session_id", cred.SessionID)
	log.Info("credential issued, negotiating")

	s.setStatus(StatusNegotiating, "")

	conn, err := s.cfg.Dialer.Connect(ctx, cred, transport.ConnectOptions{
		OnStage: func(st transport.ConnectStage) {
			if s.stopped.Load() {
				return
			}
			switch st {
			case transport.StageRequestingMicrophone:
				s.setStatus(StatusRequestingMicrophone, "")
			case transport.StageNegotiating:
				s.setStatus(StatusNegotiating, "")
			}
		},
		OnRemoteStream: func(stream transport.MediaStream) {
			if s.cfg.Playback != nil {
				s.cfg.Playback.BindStream(stream)
			}
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(err)
		return
	}

	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	// Media negotiation finishing does not mean the control channel is usable
	// yet; the session is Connected only once the channel reports open.
	select {
	case <-ctx.Done():
		return
	case <-conn.Done():
		s.fail(shared.NegotiationError(errors.New("transport closed before control channel opened")))
		return
	case <-time.After(s.cfg.ConnectTimeout):
		s.fail(shared.NegotiationError(errors.New("control channel open timed out")))
		return
	case <-conn.Opened():
	}

	if s.stopped.Load() {
		return
	}

	log.Info("control channel open")
	s.setStatus(StatusConnected, "")

	s.wg.Add(1)
	go s.eventLoop(ctx, conn, seg)
}

func (s *Session) eventLoop(ctx context.Context, conn transport.Connection, seg *Segmenter) {
	defer s.wg.Done()

	var response strings.Builder

	for {
		select {
		case <-ctx.Done():
			return

		case <-seg.SilenceTicks():
			if s.stopped.Load() {
				continue
			}
			if text, ok := seg.CheckSilence(time.Now()); ok {
				s.emit(s.cfg.Callbacks.OnCompletedTranscript, text)
			}

		case <-conn.Done():
			if s.stopped.Load() {
				return
			}
			s.teardown()
			s.setStatus(StatusDisconnected, "")
			return

		case ev := <-conn.Events():
			if s.stopped.Load() {
				continue
			}
			s.handleEvent(ev, seg, &response)
		}
	}
}

func (s *Session) handleEvent(ev transport.Event, seg *Segmenter, response *strings.Builder) {
	switch ev := ev.(type) {
	case transport.TranscriptDelta:
		utterance, partial, finalized := seg.Push(ev.Transcript, ev.IsFinal)
		if finalized {
			s.emit(s.cfg.Callbacks.OnCompletedTranscript, utterance)
		} else if partial != "" {
			s.emit(s.cfg.Callbacks.OnPartialTranscript, partial)
		}

	case transport.ResponseTextDelta:
		if ev.Text != "" {
			response.WriteString(ev.Text)
		}
		if ev.IsFinal {
			text := strings.TrimSpace(response.String())
			response.Reset()
			if text != "" {
				s.emit(s.cfg.Callbacks.OnCompletedResponse, text)
			}
		} else if ev.Text != "" {
			s.emit(s.cfg.Callbacks.OnPartialResponse, ev.Text)
		}

	case transport.VoiceActivity:
		s.mu.Lock()
		s.isSpeaking = ev.IsActive
		s.mu.Unlock()
	}
}

func (s *Session) emit(cb func(string), text string) {
	if cb != nil {
		cb(text)
	}
}

// Stop tears the session down from any state. It is idempotent, cancels an
// in-flight negotiation, disarms the silence watchdog, and waits for the
// dispatcher to drain so no callback fires after it returns.
func (s *Session) Stop() {
	s.stopped.Store(true)
	s.teardown()
	s.wg.Wait()
	s.setStatus(StatusDisconnected, "")
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancel
	seg := s.seg
	s.conn = nil
	s.cancel = nil
	s.isSpeaking = false
	s.mu.Unlock()

	if seg != nil {
		seg.Reset()
	}
	if cancel != nil {
		cancel()
	}
	if s.cfg.Playback != nil {
		s.cfg.Playback.Unbind()
	}
	if conn != nil {
		conn.Close()
	}
}

func (s *Session) fail(err error) {
	if s.stopped.Load() {
		return
	}
	s.log.Error("session failed", "error", err)
	s.teardown()
	s.setStatus(StatusFailed, err.Error())
}

func (s *Session) setStatus(status Status, errMessage string) {
	s.mu.Lock()
	s.status = status
	s.errMessage = errMessage
	cb := s.cfg.Callbacks.OnStatusChange
	s.mu.Unlock()

	if cb != nil {
		cb(status, errMessage)
	}
}

func (s *Session) SetVolume(v float64) {
	if s.cfg.Playback != nil {
		s.cfg.Playback.SetVolume(v)
	}
}

func (s *Session) ToggleMute() {
	if s.cfg.Playback != nil {
		s.cfg.Playback.ToggleMute()
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the failure message, set only while the session is Failed.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// IsSpeaking reports the last decoded voice-activity state. Observational
// only; it has no effect on segmentation.
func (s *Session) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpeaking
}
