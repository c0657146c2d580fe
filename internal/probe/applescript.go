package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/musicord/musicord/internal/track"
)

// fieldSep separates the fields of the AppleScript reply. It never occurs
// in real track metadata.
const fieldSep = "|||"

// notPlayingSentinel is returned by the script when the player is stopped.
const notPlayingSentinel = "NOT_PLAYING"

// currentTrackScript queries the Music app for the current track. The reply
// is state|||title|||artist|||album|||duration|||position|||url with
// duration and position in seconds, or the NOT_PLAYING sentinel.
const currentTrackScript = `
tell application "Music"
	set st to player state as string
	if st is "playing" or st is "paused" then
		set trackName to name of current track
		set artistName to artist of current track
		set albumName to album of current track
		set trackDuration to duration of current track
		set playerPos to player position
		return st & "|||" & trackName & "|||" & artistName & "|||" & albumName & "|||" & trackDuration & "|||" & playerPos & "|||"
	else
		return "NOT_PLAYING"
	end if
end tell
`

// playerProcessName is the executable name of the Apple Music player.
const playerProcessName = "Music"

// AppleScriptProbe reads playback state from the macOS Music app via
// osascript. The probe first checks that the player process exists so that
// querying it never launches the app.
type AppleScriptProbe struct {
	// processRunning and runScript are swapped out in tests.
	processRunning func(name string) bool
	runScript      func(ctx context.Context) (string, error)
}

func NewAppleScript() *AppleScriptProbe {
	return &AppleScriptProbe{
		processRunning: processRunning,
		runScript:      runOsascript,
	}
}

func (p *AppleScriptProbe) Name() string { return "applescript" }

func (p *AppleScriptProbe) Probe(ctx context.Context) (*track.Snapshot, error) {
	if !p.processRunning(playerProcessName) {
		return nil, fmt.Errorf("%w: %s is not running", ErrUnavailable, playerProcessName)
	}
	out, err := p.runScript(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: osascript: %v", ErrUnavailable, err)
	}
	return parseScriptReply(strings.TrimSpace(out), time.Now())
}

// processRunning reports whether a process with the given executable name
// exists. When the process table cannot be read at all the check is
// inconclusive and we let the script call decide.
func processRunning(name string) bool {
	procs, err := process.Processes()
	if err != nil {
		return true
	}
	for _, proc := range procs {
		n, err := proc.Name()
		if err != nil {
			continue
		}
		if n == name {
			return true
		}
	}
	return false
}

func runOsascript(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "osascript", "-e", currentTrackScript).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// parseScriptReply converts the script output into a snapshot. An empty
// reply or the NOT_PLAYING sentinel yields (nil, nil).
func parseScriptReply(reply string, now time.Time) (*track.Snapshot, error) {
	if reply == "" || reply == notPlayingSentinel {
		return nil, nil
	}

	parts := strings.Split(reply, fieldSep)
	if len(parts) < 6 {
		return nil, fmt.Errorf("malformed player reply: %d fields", len(parts))
	}

	state := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	artist := strings.TrimSpace(parts[2])
	album := strings.TrimSpace(parts[3])

	if title == "" {
		return nil, fmt.Errorf("player reply has empty track name")
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration: %w", err)
	}
	position, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
	if err != nil {
		return nil, fmt.Errorf("parse position: %w", err)
	}
	if duration < 0 || position < 0 {
		return nil, fmt.Errorf("negative duration or position in player reply")
	}
	if position > duration {
		position = duration
	}

	snap := &track.Snapshot{
		Title:      title,
		Artist:     artist,
		Album:      album,
		Playing:    state == "playing",
		Duration:   time.Duration(duration * float64(time.Second)),
		Position:   time.Duration(position * float64(time.Second)),
		CapturedAt: now,
	}
	if len(parts) >= 7 {
		snap.URL = strings.TrimSpace(parts[6])
	}
	return snap, nil
}
