package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v3"
)

// dictationChannelLabel is the data channel clients open for transcript
// exchange: raw segments inbound, formatted text outbound.
const dictationChannelLabel = "dictation"

// WebRTC wraps a peer connection as a session transport. Disconnect is
// idempotent: the underlying close runs once and later calls observe the
// first call's result, so it is always safe to call on an already-closed
// connection.
type WebRTC struct {
	pc        *webrtc.PeerConnection
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error

	recv chan string

	mu sync.RWMutex
	dc *webrtc.DataChannel
}

// NewWebRTC wraps an established peer connection and hooks the dictation data
// channel when the remote side opens it.
func NewWebRTC(pc *webrtc.PeerConnection, logger *slog.Logger) *WebRTC {
	t := &WebRTC{
		pc:     pc,
		logger: logger,
		recv:   make(chan string, 16),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != dictationChannelLabel {
			return
		}
		t.mu.Lock()
		t.dc = dc
		t.mu.Unlock()

		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			select {
			case t.recv <- string(msg.Data):
			default:
				t.logger.Warn("Dropping transcript segment, receive buffer full")
			}
		})
		t.logger.Debug("Dictation data channel opened")
	})

	return t
}

// Recv returns the channel carrying inbound transcript segments.
func (t *WebRTC) Recv() <-chan string {
	return t.recv
}

// Send writes formatted text back over the dictation data channel.
func (t *WebRTC) Send(ctx context.Context, text string) error {
	t.mu.RLock()
	dc := t.dc
	t.mu.RUnlock()

	if dc == nil {
		return fmt.Errorf("dictation data channel not open")
	}
	if err := dc.SendText(text); err != nil {
		return fmt.Errorf("data channel send failed: %w", err)
	}
	return nil
}

// NewPeerConnection creates a peer connection using the configured STUN
// server. Signaling and negotiation are handled by the caller.
func NewPeerConnection(stunServer string) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{stunServer}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	return pc, nil
}

// Disconnect closes the peer connection. Failures are returned for the caller
// to log; they never indicate a retryable condition.
func (t *WebRTC) Disconnect(ctx context.Context) error {
	t.closeOnce.Do(func() {
		t.logger.Debug("Closing WebRTC peer connection")
		t.closeErr = t.pc.Close()
	})
	return t.closeErr
}

// ConnectionState returns the current peer connection state.
func (t *WebRTC) ConnectionState() webrtc.PeerConnectionState {
	return t.pc.ConnectionState()
}
