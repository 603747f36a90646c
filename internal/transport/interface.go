package transport

import "context"

// TokenSource mints an ephemeral credential for one connection.
type TokenSource interface {
	Mint(ctx context.Context, voice string) (Credential, error)
}

// MediaStream is the inbound media leg: one encoded audio frame per read.
// ReadFrame blocks until a frame arrives or the stream ends.
type MediaStream interface {
	ReadFrame() ([]byte, error)
}

// Connection is one negotiated transport. Events carries decoded
// control-channel events in arrival order; Done is closed when the transport
// drops. Opened is closed once the control channel itself reports open, which
// is independent of media negotiation completing.
type Connection interface {
	Events() <-chan Event
	Opened() <-chan struct{}
	Done() <-chan struct{}
	Close() error
}

// ConnectOptions carries the hooks a Dialer invokes during connect.
// OnRemoteStream fires as soon as the inbound media stream arrives, which can
// be before the control channel opens.
type ConnectOptions struct {
	OnStage        func(ConnectStage)
	OnRemoteStream func(MediaStream)
}

// Dialer performs the full connect sequence against the remote speech service
// and returns a live Connection. A cancelled context aborts negotiation and
// releases everything created so far.
type Dialer interface {
	Connect(ctx context.Context, cred Credential, opts ConnectOptions) (Connection, error)
}
