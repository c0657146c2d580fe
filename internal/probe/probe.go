package probe

import (
	"context"
	"errors"

	"github.com/musicord/musicord/internal/track"
)

// ErrUnavailable reports that the media player is not running or not
// reachable. This is an expected condition, not a fault: the poll loop
// treats it like "nothing playing" and keeps polling.
var ErrUnavailable = errors.New("media player unavailable")

// Probe reads the current playback state from a media player. One
// implementation exists per player backend (AppleScript bridge, MPD).
//
// Implementations are called from a single goroutine (the poll loop) and
// do not need to be safe for concurrent use.
type Probe interface {
	// Name returns a short lowercase identifier for this backend,
	// e.g. "applescript" or "mpd". Used in logs.
	Name() string

	// Probe returns a snapshot of the currently playing or paused track.
	// It returns (nil, nil) when the player reports nothing playing, and
	// an error wrapping ErrUnavailable when the player cannot be reached.
	// Probe has no side effects on the player.
	Probe(ctx context.Context) (*track.Snapshot, error)
}
