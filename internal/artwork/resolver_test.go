package artwork

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/musicord/musicord/internal/track"
)

func newTestResolver(deezer, itunes http.Handler) (*Resolver, func()) {
	ds := httptest.NewServer(deezer)
	is := httptest.NewServer(itunes)
	r := NewResolver()
	r.client = &http.Client{Timeout: time.Second}
	r.deezerBase = ds.URL
	r.itunesBase = is.URL
	return r, func() {
		ds.Close()
		is.Close()
	}
}

func deezerHandler(cover string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[{"album":{"cover_xl":%q,"cover_big":"big","cover_medium":"medium"}}]}`, cover)
	})
}

func itunesHandler(artist, title, link string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[{"artistName":%q,"trackName":%q,"trackViewUrl":%q}]}`, artist, title, link)
	})
}

func TestResolvePrefersLargestCover(t *testing.T) {
	r, done := newTestResolver(
		deezerHandler("https://cdn.example/xl.jpg"),
		itunesHandler("Artist A", "Song A", "https://itunes.apple.com/us/song/1"),
	)
	defer done()

	info := r.Resolve(context.Background(), track.Identity{Title: "Song A", Artist: "Artist A"})
	if info.CoverURL != "https://cdn.example/xl.jpg" {
		t.Errorf("CoverURL = %q, want xl cover", info.CoverURL)
	}
}

func TestResolveRewritesITunesHost(t *testing.T) {
	r, done := newTestResolver(
		deezerHandler(""),
		itunesHandler("Artist A", "Song A", "https://itunes.apple.com/us/song/1"),
	)
	defer done()

	info := r.Resolve(context.Background(), track.Identity{Title: "Song A", Artist: "Artist A"})
	if info.LinkURL != "https://music.apple.com/us/song/1" {
		t.Errorf("LinkURL = %q, want music.apple.com rewrite", info.LinkURL)
	}
}

func TestResolveMismatchedResultFallsBack(t *testing.T) {
	r, done := newTestResolver(
		deezerHandler(""),
		itunesHandler("Completely Different", "Other Track", "https://itunes.apple.com/us/song/9"),
	)
	defer done()

	info := r.Resolve(context.Background(), track.Identity{Title: "Song A", Artist: "Artist A"})
	if !strings.HasPrefix(info.LinkURL, "https://music.apple.com/search?term=") {
		t.Errorf("LinkURL = %q, want search fallback", info.LinkURL)
	}
}

func TestResolveUnreachableServicesFallBack(t *testing.T) {
	r := NewResolver()
	r.client = &http.Client{Timeout: 100 * time.Millisecond}
	r.deezerBase = "http://127.0.0.1:1"
	r.itunesBase = "http://127.0.0.1:1"

	info := r.Resolve(context.Background(), track.Identity{Title: "Song A", Artist: "Artist A"})
	if info.CoverURL != "" {
		t.Errorf("CoverURL = %q, want empty on failure", info.CoverURL)
	}
	if !strings.HasPrefix(info.LinkURL, "https://music.apple.com/search?term=") {
		t.Errorf("LinkURL = %q, want search fallback", info.LinkURL)
	}
}

func TestResolveCachesPerIdentity(t *testing.T) {
	var deezerCalls, itunesCalls atomic.Int64
	r, done := newTestResolver(
		http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			deezerCalls.Add(1)
			deezerHandler("xl").ServeHTTP(w, req)
		}),
		http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			itunesCalls.Add(1)
			itunesHandler("Artist A", "Song A", "https://itunes.apple.com/1").ServeHTTP(w, req)
		}),
	)
	defer done()

	id := track.Identity{Title: "Song A", Artist: "Artist A", Album: "Album A"}
	ctx := context.Background()
	first := r.Resolve(ctx, id)
	second := r.Resolve(ctx, id)

	if first != second {
		t.Errorf("cached lookup differs: %+v vs %+v", first, second)
	}
	if deezerCalls.Load() != 1 || itunesCalls.Load() != 1 {
		t.Errorf("lookup calls = %d/%d, want 1/1", deezerCalls.Load(), itunesCalls.Load())
	}
}

func TestResolveEmptyIdentity(t *testing.T) {
	r := NewResolver()
	info := r.Resolve(context.Background(), track.Identity{})
	if info.LinkURL != appleMusicHome {
		t.Errorf("LinkURL = %q, want %q", info.LinkURL, appleMusicHome)
	}
}
