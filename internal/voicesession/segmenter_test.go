package voicesession

import (
	"testing"
	"time"
)

func TestSegmenter_PunctuationFinalizes(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	utt, partial, finalized := seg.Push("Hello", false)
	if finalized {
		t.Fatal("unterminated fragment should not finalize")
	}
	if partial != "Hello" {
		t.Errorf("expected partial %q, got %q", "Hello", partial)
	}
	if utt != "" {
		t.Errorf("expected no utterance, got %q", utt)
	}

	utt, _, finalized = seg.Push("world.", false)
	if !finalized {
		t.Fatal("fragment ending in period should finalize")
	}
	if utt != "Hello world." {
		t.Errorf("expected %q, got %q", "Hello world.", utt)
	}
	if seg.Pending() != "" {
		t.Errorf("pending should be empty after finalization, got %q", seg.Pending())
	}
}

func TestSegmenter_AllTerminators(t *testing.T) {
	for _, terminator := range []string{"done.", "done!", "done?"} {
		seg := NewSegmenter(SegmenterConfig{})
		_, _, finalized := seg.Push(terminator, false)
		if !finalized {
			t.Errorf("fragment %q should finalize", terminator)
		}
	}
}

func TestSegmenter_TrailingWhitespaceBeforeTerminator(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})
	utt, _, finalized := seg.Push("  okay.  ", false)
	if !finalized {
		t.Fatal("whitespace-padded terminal fragment should finalize")
	}
	if utt != "okay." {
		t.Errorf("expected trimmed %q, got %q", "okay.", utt)
	}
}

func TestSegmenter_ShortFragmentsOnlyPreview(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	for _, frag := range []string{"Hi", "there"} {
		utt, _, finalized := seg.Push(frag, false)
		if finalized {
			t.Fatalf("fragment %q should not finalize", frag)
		}
		if utt != "" {
			t.Fatalf("unexpected utterance %q", utt)
		}
	}

	if seg.Pending() != "Hi there" {
		t.Errorf("expected pending %q, got %q", "Hi there", seg.Pending())
	}
}

func TestSegmenter_LengthPlusFinalFlag(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	// 20 chars of pending content, no terminal punctuation.
	seg.Push("twenty characters ok", false)

	utt, _, finalized := seg.Push("and more", true)
	if !finalized {
		t.Fatal("final fragment over accumulated length threshold should finalize")
	}
	if utt != "twenty characters ok and more" {
		t.Errorf("unexpected utterance %q", utt)
	}
	if seg.Pending() != "" {
		t.Errorf("pending should be empty, got %q", seg.Pending())
	}
}

func TestSegmenter_LengthRuleUsesPreAppendLength(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	// Pending is empty pre-append, so a long final fragment alone must not
	// trigger the length rule.
	utt, _, finalized := seg.Push("this is a single long final fragment", true)
	if finalized {
		t.Fatalf("length rule fired on pre-append empty buffer, emitted %q", utt)
	}
	if seg.Pending() == "" {
		t.Error("fragment should still be buffered")
	}
}

func TestSegmenter_FinalFlagUnderThresholdKeepsBuffering(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	seg.Push("short", false)
	_, _, finalized := seg.Push("again", true)
	if finalized {
		t.Fatal("final flag under length threshold should not finalize")
	}
	if seg.Pending() != "short again" {
		t.Errorf("expected pending %q, got %q", "short again", seg.Pending())
	}
}

func TestSegmenter_PunctuationShortCircuitsLengthRule(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	seg.Push("twenty characters ok", false)

	// Both rules match this fragment; punctuation wins and exactly one
	// utterance comes out.
	utt, _, finalized := seg.Push("finishing now.", true)
	if !finalized {
		t.Fatal("expected finalization")
	}
	if utt != "twenty characters ok finishing now." {
		t.Errorf("unexpected utterance %q", utt)
	}

	// Nothing left behind to double-emit.
	if text, ok := seg.CheckSilence(time.Now().Add(time.Hour)); ok {
		t.Errorf("unexpected second emission %q", text)
	}
}

func TestSegmenter_SilenceWatchdogFinalizes(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{
		SilenceTimeout:    20 * time.Millisecond,
		SilenceMinElapsed: 10 * time.Millisecond,
	})

	seg.Push("hanging fragment", false)

	select {
	case <-seg.SilenceTicks():
	case <-time.After(time.Second):
		t.Fatal("watchdog never ticked")
	}

	utt, ok := seg.CheckSilence(time.Now())
	if !ok {
		t.Fatal("expected silence finalization")
	}
	if utt != "hanging fragment" {
		t.Errorf("unexpected utterance %q", utt)
	}
	if seg.Pending() != "" {
		t.Errorf("pending should be empty, got %q", seg.Pending())
	}
}

func TestSegmenter_WatchdogRearmsOnEveryAppend(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{
		SilenceTimeout:    40 * time.Millisecond,
		SilenceMinElapsed: 30 * time.Millisecond,
	})

	seg.Push("first", false)
	time.Sleep(25 * time.Millisecond)
	seg.Push("second", false)

	// A tick raced the second append; the elapsed check must reject it.
	if text, ok := seg.CheckSilence(time.Now()); ok {
		t.Errorf("stale tick finalized %q", text)
	}
	if seg.Pending() != "first second" {
		t.Errorf("expected pending intact, got %q", seg.Pending())
	}
}

func TestSegmenter_SilenceRequiresPending(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})
	if text, ok := seg.CheckSilence(time.Now().Add(time.Hour)); ok {
		t.Errorf("empty buffer finalized as %q", text)
	}
}

func TestSegmenter_FragmentFinalizationCancelsPendingTick(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{
		SilenceTimeout:    10 * time.Millisecond,
		SilenceMinElapsed: 5 * time.Millisecond,
	})

	seg.Push("buffered text here", false)

	// Let the watchdog expire without consuming its tick.
	time.Sleep(30 * time.Millisecond)

	// The tick is queued. A finalizing fragment must win and clear it.
	utt, _, finalized := seg.Push("done.", false)
	if !finalized || utt != "buffered text here done." {
		t.Fatalf("expected fragment finalization, got %q finalized=%v", utt, finalized)
	}

	select {
	case <-seg.SilenceTicks():
		t.Error("pending tick should have been cancelled by fragment finalization")
	default:
	}
}

func TestSegmenter_ResetDisarmsWatchdog(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{
		SilenceTimeout:    10 * time.Millisecond,
		SilenceMinElapsed: 5 * time.Millisecond,
	})

	seg.Push("about to stop", false)
	seg.Reset()

	select {
	case <-seg.SilenceTicks():
		// A tick may have fired before Reset drained it only if the timing
		// raced; either way the check must refuse to finalize.
		if text, ok := seg.CheckSilence(time.Now().Add(time.Hour)); ok {
			t.Errorf("finalized %q after reset", text)
		}
	case <-time.After(50 * time.Millisecond):
	}

	if seg.Pending() != "" {
		t.Errorf("pending should be empty after reset, got %q", seg.Pending())
	}
}

func TestSegmenter_NeverEmitsEmptyUtterance(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	utt, _, finalized := seg.Push("   ", true)
	if finalized {
		t.Errorf("whitespace fragment finalized as %q", utt)
	}
	if seg.Pending() != "" {
		t.Errorf("whitespace should not be buffered, got %q", seg.Pending())
	}
}

func TestSegmenter_JoinWithSingleSpaces(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	seg.Push("  what ", false)
	seg.Push("time", false)
	seg.Push(" is", false)

	_, _, finalized := seg.Push("", false)
	if finalized {
		t.Fatal("empty fragment should not finalize")
	}

	got, _, finalized := seg.Push("it now.", false)
	if !finalized {
		t.Fatal("expected finalization")
	}
	if got != "what time is it now." {
		t.Errorf("unexpected join %q", got)
	}
}
