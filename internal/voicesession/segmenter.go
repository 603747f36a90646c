package voicesession

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

type SegmenterConfig struct {
	// SilenceTimeout is the watchdog delay, re-armed on every append.
	SilenceTimeout time.Duration
	// SilenceMinElapsed is the minimum time since the last append for the
	// watchdog to actually finalize when it fires.
	SilenceMinElapsed time.Duration
	// MinPendingForFinal is the trimmed pending length that, together with a
	// final-flagged fragment, forces finalization without terminal punctuation.
	MinPendingForFinal int
}

func (c SegmenterConfig) withDefaults() SegmenterConfig {
	if c.SilenceTimeout <= 0 {
		c.SilenceTimeout = 2500 * time.Millisecond
	}
	if c.SilenceMinElapsed <= 0 {
		c.SilenceMinElapsed = 2 * time.Second
	}
	if c.MinPendingForFinal <= 0 {
		c.MinPendingForFinal = 15
	}
	return c
}

// Segmenter folds transcript fragments into a pending buffer and decides when
// the buffer is a complete utterance. Three rules are armed at once: terminal
// punctuation on the incoming fragment, accumulated length plus the fragment's
// final flag, and a silence watchdog. Punctuation is checked first and
// short-circuits the length rule for that fragment.
//
// The watchdog never finalizes on its own goroutine: its timer only signals
// SilenceTicks, and the owner calls CheckSilence from its event loop. That
// keeps delivery single-flight and lets a racing fragment win over a pending
// tick.
type Segmenter struct {
	cfg SegmenterConfig

	mu         sync.Mutex
	pending    []string
	lastUpdate time.Time
	timer      *time.Timer
	silenceCh  chan struct{}
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	return &Segmenter{
		cfg:       cfg.withDefaults(),
		silenceCh: make(chan struct{}, 1),
	}
}

// Push appends a fragment and applies the fragment-driven rules. When the
// buffer finalizes, utterance holds its trimmed text and the buffer is empty
// afterward. Otherwise partial holds the current preview text.
func (s *Segmenter) Push(fragment string, isFinal bool) (utterance, partial string, finalized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frag := strings.TrimSpace(fragment)
	preLen := utf8.RuneCountInString(s.pendingLocked())

	if frag != "" {
		s.pending = append(s.pending, frag)
	}

	if endsWithTerminator(frag) {
		text := s.finalizeLocked()
		return text, "", text != ""
	}

	if preLen > s.cfg.MinPendingForFinal && isFinal {
		text := s.finalizeLocked()
		return text, "", text != ""
	}

	if frag != "" {
		s.lastUpdate = time.Now()
		s.rearmLocked()
	}

	return "", s.pendingLocked(), false
}

// SilenceTicks delivers one signal per watchdog expiry. The owner must follow
// up with CheckSilence; the tick alone does not finalize anything.
func (s *Segmenter) SilenceTicks() <-chan struct{} {
	return s.silenceCh
}

// CheckSilence finalizes the pending buffer if it is non-empty and no fragment
// arrived within the minimum silence window. Stale ticks are no-ops.
func (s *Segmenter) CheckSilence(now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return "", false
	}
	if now.Sub(s.lastUpdate) <= s.cfg.SilenceMinElapsed {
		return "", false
	}

	text := s.finalizeLocked()
	return text, text != ""
}

// Pending returns the current preview text.
func (s *Segmenter) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

// Reset clears the buffer and disarms the watchdog. Called on teardown; after
// Reset no previously armed tick can finalize.
func (s *Segmenter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.lastUpdate = time.Time{}
	s.disarmLocked()
}

func (s *Segmenter) pendingLocked() string {
	return strings.TrimSpace(strings.Join(s.pending, " "))
}

func (s *Segmenter) finalizeLocked() string {
	text := s.pendingLocked()
	s.pending = nil
	s.lastUpdate = time.Time{}
	s.disarmLocked()
	return text
}

func (s *Segmenter) rearmLocked() {
	if s.timer == nil {
		s.timer = time.AfterFunc(s.cfg.SilenceTimeout, s.tick)
		return
	}
	s.timer.Reset(s.cfg.SilenceTimeout)
}

func (s *Segmenter) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	select {
	case <-s.silenceCh:
	default:
	}
}

func (s *Segmenter) tick() {
	select {
	case s.silenceCh <- struct{}{}:
	default:
	}
}

func endsWithTerminator(s string) bool {
	s = strings.TrimRight(s, " \t\n\r")
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '!' || last == '?'
}
