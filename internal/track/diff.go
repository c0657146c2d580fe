package track

// Action is the poll loop's verdict for one tick: publish the snapshot,
// clear the remote presence, or do nothing.
type Action int

const (
	NoOp Action = iota
	Publish
	Clear
)

var actionNames = map[Action]string{
	NoOp:    "noop",
	Publish: "publish",
	Clear:   "clear",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Diff compares the last confirmed presence against the current snapshot.
// A nil snapshot means nothing is playing (or the player was unreachable);
// that yields Clear exactly once — while the previous presence is already
// None further nil snapshots are NoOps. Track identity compares by
// (title, artist, album) only, so position drift between ticks never
// triggers a publish; toggling between playing and paused does.
func Diff(prev Presence, snap *Snapshot) Action {
	if snap == nil {
		if prev.Kind == None {
			return NoOp
		}
		return Clear
	}
	if prev.Kind == None || prev.Track == nil {
		return Publish
	}
	if prev.Track.Identity() != snap.Identity() {
		return Publish
	}
	if prev.Kind != KindFor(snap) {
		return Publish
	}
	return NoOp
}
