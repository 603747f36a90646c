package voicesession

// Status is the session lifecycle state. Exactly one session is live per
// facade; a new Start requires the previous one fully torn down.
type Status int

const (
	StatusIdle Status = iota
	StatusRequestingToken
	StatusNegotiating
	StatusRequestingMicrophone
	StatusConnected
	StatusDisconnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequestingToken:
		return "requesting_token"
	case StatusNegotiating:
		return "negotiating"
	case StatusRequestingMicrophone:
		return "requesting_microphone"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) live() bool {
	switch s {
	case StatusRequestingToken, StatusNegotiating, StatusRequestingMicrophone, StatusConnected:
		return true
	default:
		return false
	}
}
