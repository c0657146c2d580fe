package discord

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/musicord/musicord/internal/metrics"
)

// State is the session manager's view of the peer connection.
type State int

const (
	// Disconnected means no session handle exists. The next publish or
	// clear attempt re-initiates the handshake; no connection is held
	// open speculatively.
	Disconnected State = iota

	// Connected means the last handshake succeeded and the handle is
	// presumed usable.
	Connected

	// Degraded means a previously connected session broke (send failure
	// or peer close). The handle has been discarded and the session is
	// awaiting re-handshake on the next attempt.
	Degraded
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connected:    "connected",
	Degraded:     "degraded",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Manager owns the connection lifecycle to the presence peer. Peer absence
// is never fatal: every failure degrades the session, and the next
// publish/clear attempt transparently re-handshakes, so presence resumes on
// its own once the peer comes back.
//
// Manager is called only from the poll loop goroutine; State is safe to
// read from anywhere because transitions happen between calls, not during.
type Manager struct {
	appID   string
	timeout time.Duration
	client  *Client
	state   State

	// dial overrides socket discovery for clients this manager creates.
	// Tests point it at a fake peer.
	dial func() (net.Conn, error)
}

func NewManager(appID string, timeout time.Duration) *Manager {
	return &Manager{
		appID:   appID,
		timeout: timeout,
		state:   Disconnected,
	}
}

func (m *Manager) State() State { return m.state }

// Publish sends the given activity, establishing a session first if none
// exists. On failure the session is degraded and the error returned; the
// caller retries on its natural tick cadence.
func (m *Manager) Publish(ctx context.Context, a *Activity) error {
	return m.send(ctx, a)
}

// Clear removes the displayed presence. Same session semantics as Publish.
func (m *Manager) Clear(ctx context.Context) error {
	return m.send(ctx, nil)
}

func (m *Manager) send(ctx context.Context, a *Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.ensureConnected(); err != nil {
		return err
	}
	if err := m.client.SetActivity(a); err != nil {
		m.degrade(err)
		return err
	}
	return nil
}

func (m *Manager) ensureConnected() error {
	if m.state == Connected && m.client != nil {
		return nil
	}
	client := NewClient(m.appID, m.timeout)
	if m.dial != nil {
		client.dial = m.dial
	}
	if err := client.Connect(); err != nil {
		m.state = Disconnected
		return err
	}
	if m.state == Degraded {
		log.Printf("peer session re-established")
	}
	m.client = client
	m.state = Connected
	metrics.Handshakes.Inc()
	metrics.PeerConnected.Set(1)
	return nil
}

// degrade discards the session handle after a send failure. The state is
// left as Degraded so observers can tell "was connected, broke" apart from
// "never connected"; ensureConnected treats both as needing a handshake.
func (m *Manager) degrade(err error) {
	log.Printf("peer session degraded: %v", err)
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
	}
	m.state = Degraded
	metrics.PeerConnected.Set(0)
}

// Close tears down any live session handle. Called once at process exit,
// after the final clear attempt.
func (m *Manager) Close() error {
	var err error
	if m.client != nil {
		err = m.client.Close()
		m.client = nil
	}
	if m.state == Connected {
		metrics.PeerConnected.Set(0)
	}
	m.state = Disconnected
	return err
}
