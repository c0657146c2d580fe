package track

import (
	"encoding/json"
	"testing"
	"time"
)

func TestKindJSON(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{None, `"none"`},
		{Playing, `"playing"`},
		{Paused, `"paused"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.kind)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", tt.kind, err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%s) = %s, want %s", tt.kind, data, tt.want)
		}
		var back Kind
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != tt.kind {
			t.Errorf("round trip of %s gave %s", tt.kind, back)
		}
	}
}

func TestIdentityExcludesPosition(t *testing.T) {
	a := &Snapshot{Title: "T", Artist: "A", Album: "L", Position: 0}
	b := &Snapshot{Title: "T", Artist: "A", Album: "L", Position: 90 * time.Second, Playing: true}
	if a.Identity() != b.Identity() {
		t.Error("identity changed with position/playing, want equal")
	}
}

func TestIdentityQuery(t *testing.T) {
	id := Identity{Title: "Song", Artist: "Artist"}
	if got := id.Query(); got != "Artist Song" {
		t.Errorf("Query() = %q, want %q", got, "Artist Song")
	}
	id = Identity{Title: "Song"}
	if got := id.Query(); got != "Song" {
		t.Errorf("Query() without artist = %q, want %q", got, "Song")
	}
}

func TestPresenceCloneIndependent(t *testing.T) {
	orig := Presence{
		Kind:  Playing,
		Track: &Snapshot{Title: "original"},
	}
	c := orig.Clone()
	c.Track.Title = "mutated"
	if orig.Track.Title != "original" {
		t.Error("Clone did not copy Track; mutation leaked into original")
	}
}
