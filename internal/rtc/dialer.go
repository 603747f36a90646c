package rtc

import (
	"context"
	"log/slog"
	"sync"

	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/connorholly11/purpose-voice/internal/transport"
	"github.com/pion/webrtc/v4"
)

// Dialer runs the connect sequence: transport endpoint and control channel,
// microphone acquisition, then the offer/answer exchange. Any failure closes
// everything created so far before returning.
type Dialer struct {
	cfg        Config
	mic        MicrophoneSource
	negotiator *Negotiator
	log        *slog.Logger
}

func NewDialer(cfg Config, mic MicrophoneSource, log *slog.Logger) *Dialer {
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{
		cfg:        cfg,
		mic:        mic,
		negotiator: NewNegotiator(cfg.NegotiationURL, nil),
		log:        log,
	}
}

func (d *Dialer) Connect(ctx context.Context, cred transport.Credential, opts transport.ConnectOptions) (transport.Connection, error) {
	stage(opts, transport.StageNegotiating)

	peer, err := NewPeer(d.cfg)
	if err != nil {
		return nil, shared.NegotiationError(err)
	}

	conn := NewConn(peer, d.cfg, d.log.With("session_id", cred.SessionID))

	// The inbound media stream is handed off as soon as the track arrives,
	// regardless of control-channel readiness.
	if opts.OnRemoteStream != nil {
		onRemote := opts.OnRemoteStream
		peer.OnRemoteAudio(func(track *webrtc.TrackRemote) {
			onRemote(newTrackStream(track))
		})
	}

	stage(opts, transport.StageRequestingMicrophone)

	track, err := d.mic.Acquire()
	if err != nil {
		conn.Close()
		return nil, err
	}

	mc := &micConn{Conn: conn, mic: d.mic}

	stage(opts, transport.StageNegotiating)

	if err := peer.AddTrack(track); err != nil {
		mc.Close()
		return nil, shared.NegotiationError(err)
	}

	if err := ctx.Err(); err != nil {
		mc.Close()
		return nil, err
	}

	offer, err := peer.CreateOffer()
	if err != nil {
		mc.Close()
		return nil, shared.NegotiationError(err)
	}

	answer, err := d.negotiator.Exchange(ctx, offer, cred.Secret)
	if err != nil {
		mc.Close()
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		mc.Close()
		return nil, err
	}

	if err := peer.SetAnswer(answer); err != nil {
		mc.Close()
		return nil, shared.NegotiationError(err)
	}

	return mc, nil
}

func stage(opts transport.ConnectOptions, s transport.ConnectStage) {
	if opts.OnStage != nil {
		opts.OnStage(s)
	}
}

// micConn ties the microphone's lifetime to the connection so teardown always
// releases the capture source.
type micConn struct {
	*Conn
	mic     MicrophoneSource
	release sync.Once
}

func (m *micConn) Close() error {
	m.release.Do(m.mic.Release)
	return m.Conn.Close()
}
