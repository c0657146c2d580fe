package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/musicord/musicord/internal/track"
)

// MPDProbe reads playback state from a Music Player Daemon instance. A
// fresh connection is dialed per poll — at presence polling cadence that
// is cheaper than keeping an idle connection alive across player restarts.
type MPDProbe struct {
	network string
	addr    string
}

// NewMPD creates a probe for the given address. Addresses starting with
// "/" are treated as unix sockets, anything else as host:port.
func NewMPD(addr string) *MPDProbe {
	network := "tcp"
	if strings.HasPrefix(addr, "/") {
		network = "unix"
	}
	return &MPDProbe{network: network, addr: addr}
}

func (p *MPDProbe) Name() string { return "mpd" }

func (p *MPDProbe) Probe(_ context.Context) (*track.Snapshot, error) {
	c, err := mpd.Dial(p.network, p.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: mpd dial %s: %v", ErrUnavailable, p.addr, err)
	}
	defer c.Close()

	status, err := c.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: mpd status: %v", ErrUnavailable, err)
	}

	state := status["state"]
	if state != "play" && state != "pause" {
		return nil, nil
	}

	song, err := c.CurrentSong()
	if err != nil {
		return nil, fmt.Errorf("%w: mpd currentsong: %v", ErrUnavailable, err)
	}
	title := song["Title"]
	if title == "" {
		// Stream entries often carry only a Name.
		title = song["Name"]
	}
	if title == "" {
		return nil, nil
	}

	return &track.Snapshot{
		Title:      title,
		Artist:     song["Artist"],
		Album:      song["Album"],
		Playing:    state == "play",
		Duration:   secondsAttr(status, "duration"),
		Position:   secondsAttr(status, "elapsed"),
		CapturedAt: time.Now(),
	}, nil
}

// secondsAttr parses a fractional-seconds MPD status attribute. Missing or
// malformed values yield zero.
func secondsAttr(attrs mpd.Attrs, key string) time.Duration {
	v, err := strconv.ParseFloat(attrs[key], 64)
	if err != nil || v < 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
