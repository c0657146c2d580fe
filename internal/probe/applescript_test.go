package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/musicord/musicord/internal/track"
)

func TestParseScriptReply(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		reply   string
		want    *track.Snapshot
		wantNil bool
		wantErr bool
	}{
		{
			name:    "not playing sentinel",
			reply:   "NOT_PLAYING",
			wantNil: true,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantNil: true,
		},
		{
			name:  "playing track",
			reply: "playing|||Song A|||Artist A|||Album A|||180.5|||42.25|||",
			want: &track.Snapshot{
				Title:    "Song A",
				Artist:   "Artist A",
				Album:    "Album A",
				Playing:  true,
				Duration: time.Duration(180.5 * float64(time.Second)),
				Position: time.Duration(42.25 * float64(time.Second)),
			},
		},
		{
			name:  "paused track",
			reply: "paused|||Song A|||Artist A|||Album A|||180|||42|||",
			want: &track.Snapshot{
				Title:    "Song A",
				Artist:   "Artist A",
				Album:    "Album A",
				Playing:  false,
				Duration: 180 * time.Second,
				Position: 42 * time.Second,
			},
		},
		{
			name:  "track url carried through",
			reply: "playing|||Song A|||Artist A|||Album A|||180|||42|||https://music.apple.com/x",
			want: &track.Snapshot{
				Title:    "Song A",
				Artist:   "Artist A",
				Album:    "Album A",
				Playing:  true,
				Duration: 180 * time.Second,
				Position: 42 * time.Second,
				URL:      "https://music.apple.com/x",
			},
		},
		{
			name:  "position capped at duration",
			reply: "playing|||Song A|||Artist A|||Album A|||100|||250|||",
			want: &track.Snapshot{
				Title:    "Song A",
				Artist:   "Artist A",
				Album:    "Album A",
				Playing:  true,
				Duration: 100 * time.Second,
				Position: 100 * time.Second,
			},
		},
		{
			name:    "too few fields",
			reply:   "playing|||Song A|||Artist A",
			wantErr: true,
		},
		{
			name:    "garbage duration",
			reply:   "playing|||Song A|||Artist A|||Album A|||abc|||42|||",
			wantErr: true,
		},
		{
			name:    "empty title",
			reply:   "playing||||||Artist A|||Album A|||180|||42|||",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScriptReply(tt.reply, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil snapshot, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected snapshot, got nil")
			}
			tt.want.CapturedAt = now
			if *got != *tt.want {
				t.Errorf("parsed %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAppleScriptProbeUnavailableWhenPlayerNotRunning(t *testing.T) {
	p := NewAppleScript()
	p.processRunning = func(string) bool { return false }
	p.runScript = func(context.Context) (string, error) {
		t.Fatal("script must not run when the player process is absent")
		return "", nil
	}

	_, err := p.Probe(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Probe() error = %v, want ErrUnavailable", err)
	}
}

func TestAppleScriptProbeScriptFailureIsUnavailable(t *testing.T) {
	p := NewAppleScript()
	p.processRunning = func(string) bool { return true }
	p.runScript = func(context.Context) (string, error) {
		return "", errors.New("exit status 1")
	}

	_, err := p.Probe(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Probe() error = %v, want ErrUnavailable", err)
	}
}

func TestAppleScriptProbeParsesScriptOutput(t *testing.T) {
	p := NewAppleScript()
	p.processRunning = func(string) bool { return true }
	p.runScript = func(context.Context) (string, error) {
		return "playing|||Song A|||Artist A|||Album A|||180|||15|||\n", nil
	}

	snap, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if snap == nil || snap.Title != "Song A" || !snap.Playing {
		t.Errorf("Probe() = %+v, want playing Song A", snap)
	}
}
