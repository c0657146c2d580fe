package discord

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// HandshakeError reports that a connection to the peer could not be
// established: no IPC socket was found, or the handshake was rejected.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string { return "discord handshake failed: " + e.Err.Error() }
func (e *HandshakeError) Unwrap() error { return e.Err }

var errNotConnected = errors.New("discord: not connected")

type handshakeRequest struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type commandRequest struct {
	Cmd   string      `json:"cmd"`
	Nonce string      `json:"nonce"`
	Args  commandArgs `json:"args"`
}

type commandArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

type eventResponse struct {
	Evt  string `json:"evt"`
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

// Client is a single connection to the peer's local IPC socket. It is owned
// by the session manager and never shared; all calls happen from the poll
// loop goroutine.
type Client struct {
	appID   string
	timeout time.Duration
	conn    net.Conn

	// dial is swapped out in tests to point at a fake peer.
	dial func() (net.Conn, error)
}

func NewClient(appID string, timeout time.Duration) *Client {
	return &Client{
		appID:   appID,
		timeout: timeout,
		dial:    dialIPC,
	}
}

// dialIPC probes the well-known socket paths discord-ipc-0 through
// discord-ipc-9 under TMPDIR and connects to the first that accepts.
func dialIPC() (net.Conn, error) {
	dir := os.Getenv("TMPDIR")
	if dir == "" {
		dir = "/tmp"
	}
	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := net.DialTimeout("unix", path, time.Second)
		if err != nil {
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf("no ipc socket found under %s", dir)
}

// Connect dials the peer and performs the version-1 handshake, expecting a
// READY event back. Calling Connect on a connected client is a no-op.
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial()
	if err != nil {
		return &HandshakeError{Err: err}
	}
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		conn.Close()
		return &HandshakeError{Err: err}
	}
	if err := writeFrame(conn, opHandshake, handshakeRequest{V: 1, ClientID: c.appID}); err != nil {
		conn.Close()
		return &HandshakeError{Err: err}
	}
	_, payload, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return &HandshakeError{Err: err}
	}
	var resp eventResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		conn.Close()
		return &HandshakeError{Err: fmt.Errorf("decode handshake reply: %w", err)}
	}
	if resp.Evt != "READY" {
		conn.Close()
		return &HandshakeError{Err: fmt.Errorf("unexpected handshake event %q", resp.Evt)}
	}
	c.conn = conn
	return nil
}

func (c *Client) Connected() bool { return c.conn != nil }

// SetActivity sends a SET_ACTIVITY command and waits for the peer's
// acknowledgement. A nil activity clears the displayed presence. The whole
// exchange is bounded by the client timeout so a wedged peer surfaces as a
// send failure instead of stalling the caller.
func (c *Client) SetActivity(a *Activity) error {
	if c.conn == nil {
		return errNotConnected
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	cmd := commandRequest{
		Cmd:   "SET_ACTIVITY",
		Nonce: nonce(),
		Args:  commandArgs{PID: os.Getpid(), Activity: a},
	}
	if err := writeFrame(c.conn, opFrame, cmd); err != nil {
		return err
	}
	_, payload, err := readFrame(c.conn)
	if err != nil {
		return err
	}
	var resp eventResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decode activity reply: %w", err)
	}
	if resp.Evt == "ERROR" {
		return fmt.Errorf("peer rejected activity: %s", resp.Data.Message)
	}
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func nonce() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
