package track

import (
	"encoding/json"
	"time"
)

// Snapshot is a single point-in-time read of the media player's state.
// One is captured per poll tick and discarded after diffing; a snapshot
// referenced by a Presence is never mutated afterwards.
type Snapshot struct {
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Album      string        `json:"album"`
	Playing    bool          `json:"playing"`
	Duration   time.Duration `json:"duration"`
	Position   time.Duration `json:"position"`
	URL        string        `json:"url,omitempty"` // player-reported link, if any
	CapturedAt time.Time     `json:"capturedAt"`
}

// Identity is the part of a snapshot that names the track. Position and
// duration are deliberately excluded so that playback progress never
// counts as a track change.
type Identity struct {
	Title  string
	Artist string
	Album  string
}

func (s *Snapshot) Identity() Identity {
	return Identity{Title: s.Title, Artist: s.Artist, Album: s.Album}
}

// Query returns a free-text search string for artwork and link lookups.
func (id Identity) Query() string {
	if id.Artist == "" {
		return id.Title
	}
	return id.Artist + " " + id.Title
}

type Kind int

const (
	None Kind = iota
	Playing
	Paused
)

var kindNames = map[Kind]string{
	None:    "none",
	Playing: "playing",
	Paused:  "paused",
}

var kindFromName = map[string]Kind{
	"none":    None,
	"playing": Playing,
	"paused":  Paused,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := kindFromName[s]; ok {
		*k = v
	}
	return nil
}

// Presence is what was last successfully sent to the peer. There is exactly
// one current Presence per process, owned by the poll loop and mutated only
// after a confirmed publish or clear. The zero value means nothing has been
// published (Kind == None).
type Presence struct {
	Kind        Kind      `json:"kind"`
	Track       *Snapshot `json:"track,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Clone returns a copy whose Track can be read independently of the
// original.
func (p Presence) Clone() Presence {
	if p.Track != nil {
		t := *p.Track
		p.Track = &t
	}
	return p
}

// KindFor maps a snapshot's playing flag onto the presence kind it would
// publish as.
func KindFor(s *Snapshot) Kind {
	if s == nil {
		return None
	}
	if s.Playing {
		return Playing
	}
	return Paused
}
