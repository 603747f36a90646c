package rtc

import (
	"encoding/json"

	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/connorholly11/purpose-voice/internal/transport"
)

// wireMessage mirrors the control-channel JSON. The three shapes are not
// mutually exclusive on the wire, so decoding checks each one independently
// instead of switching on a single discriminator.
type wireMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`

	Response *struct {
		Text *struct {
			Content string `json:"content"`
			IsFinal bool   `json:"is_final"`
		} `json:"text"`
	} `json:"response"`

	VoiceActivity *struct {
		IsActive bool `json:"is_active"`
	} `json:"voice_activity"`
}

const typeAudioTranscript = "audio.transcript"

// DecodeEvents parses one control-channel message into zero or more events.
// A message matching several shapes yields one event per matching shape, in a
// fixed order: transcript, response text, voice activity.
func DecodeEvents(data []byte) ([]transport.Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, shared.ErrMalformedMessage
	}

	var events []transport.Event

	if msg.Type == typeAudioTranscript {
		events = append(events, transport.TranscriptDelta{
			Transcript: msg.Transcript,
			IsFinal:    msg.IsFinal,
		})
	}

	if msg.Response != nil && msg.Response.Text != nil {
		events = append(events, transport.ResponseTextDelta{
			Text:    msg.Response.Text.Content,
			IsFinal: msg.Response.Text.IsFinal,
		})
	}

	if msg.VoiceActivity != nil {
		events = append(events, transport.VoiceActivity{
			IsActive: msg.VoiceActivity.IsActive,
		})
	}

	return events, nil
}
