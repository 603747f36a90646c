package transport

// Credential is the short-lived secret issued by the token provider for one
// real-time connection. SessionID is used for log correlation only and is
// never reused across reconnects.
type Credential struct {
	Secret    string
	SessionID string
}

// ConnectStage reports progress through the connect sequence so the owner can
// expose fine-grained status.
type ConnectStage string

const (
	StageNegotiating          ConnectStage = "negotiating"
	StageRequestingMicrophone ConnectStage = "requesting_microphone"
)

// Event is one decoded control-channel event. A single wire message can decode
// into zero or more events, so the variants are independent rather than a
// tagged union.
type Event interface {
	isEvent()
}

// TranscriptDelta is one inbound user speech fragment, partial or final.
type TranscriptDelta struct {
	Transcript string
	IsFinal    bool
}

// ResponseTextDelta is one chunk of the assistant's text response.
type ResponseTextDelta struct {
	Text    string
	IsFinal bool
}

// VoiceActivity reports the remote service's speaking/silent detection. It is
// observational only and does not drive segmentation.
type VoiceActivity struct {
	IsActive bool
}

func (TranscriptDelta) isEvent()   {}
func (ResponseTextDelta) isEvent() {}
func (VoiceActivity) isEvent()     {}
