package rtc

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Peer wraps the client side of one peer connection: local microphone track
// out, synthesized speech track in, and the "events" data channel as the
// control channel. The peer is the offerer; the remote speech service answers.
type Peer struct {
	pc          *webrtc.PeerConnection
	dataChannel *webrtc.DataChannel

	mu            sync.RWMutex
	onRemoteAudio func(*webrtc.TrackRemote)
	onFailed      func()
}

func NewPeer(cfg Config) (*Peer, error) {
	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(me))

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers(cfg),
	})
	if err != nil {
		return nil, err
	}

	dc, err := pc.CreateDataChannel("events", nil)
	if err != nil {
		pc.Close()
		return nil, err
	}

	p := &Peer{
		pc:          pc,
		dataChannel: dc,
	}

	pc.OnTrack(func(remoteTrack *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if remoteTrack.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		p.mu.RLock()
		cb := p.onRemoteAudio
		p.mu.RUnlock()
		if cb != nil {
			cb(remoteTrack)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
			p.mu.RLock()
			onFailed := p.onFailed
			p.mu.RUnlock()
			if onFailed != nil {
				onFailed()
			}
		}
	})

	return p, nil
}

func iceServers(cfg Config) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		server := webrtc.ICEServer{
			URLs: s.URLs,
		}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs: []string{"stun:stun.l.google.com:19302"},
		})
	}

	return servers
}

func (p *Peer) AddTrack(track webrtc.TrackLocal) error {
	_, err := p.pc.AddTrack(track)
	return err
}

// CreateOffer builds the local description and waits for ICE gathering to
// complete so the SDP posted to the remote service is self-contained. The
// remote negotiation endpoint does not support trickle.
func (p *Peer) CreateOffer() (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}

	gathered := webrtc.GatheringCompletePromise(p.pc)

	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}

	<-gathered

	return p.pc.LocalDescription().SDP, nil
}

func (p *Peer) SetAnswer(sdp string) error {
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (p *Peer) DataChannel() *webrtc.DataChannel {
	return p.dataChannel
}

func (p *Peer) OnRemoteAudio(fn func(*webrtc.TrackRemote)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRemoteAudio = fn
}

func (p *Peer) OnFailed(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailed = fn
}

func (p *Peer) Close() error {
	return p.pc.Close()
}
