package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/musicord/musicord/internal/track"
)

const (
	defaultDeezerBase = "https://api.deezer.com"
	defaultITunesBase = "https://itunes.apple.com"
	appleMusicHome    = "https://music.apple.com/"

	lookupTimeout = 5 * time.Second

	// maxCacheEntries bounds the per-identity cache. A listening session
	// rarely touches more than a few hundred distinct tracks; when the
	// cap is hit the cache simply resets.
	maxCacheEntries = 256
)

// Info is the result of a lookup: a cover image URL for the presence
// assets and a track link for the presence button. Either may be empty.
type Info struct {
	CoverURL string
	LinkURL  string
}

// Resolver finds album artwork (Deezer search) and track links (iTunes
// Search API) for a track identity. Lookups are cached per identity so a
// track change costs at most one round of HTTP calls, and every failure
// degrades to an empty field — the resolver never returns an error to the
// poll loop.
type Resolver struct {
	client     *http.Client
	deezerBase string
	itunesBase string

	mu    sync.Mutex
	cache map[track.Identity]Info
}

func NewResolver() *Resolver {
	return &Resolver{
		client:     &http.Client{Timeout: lookupTimeout},
		deezerBase: defaultDeezerBase,
		itunesBase: defaultITunesBase,
		cache:      make(map[track.Identity]Info),
	}
}

func (r *Resolver) Resolve(ctx context.Context, id track.Identity) Info {
	if id.Title == "" && id.Artist == "" {
		return Info{LinkURL: appleMusicHome}
	}

	r.mu.Lock()
	if info, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return info
	}
	r.mu.Unlock()

	info := Info{
		CoverURL: r.lookupCover(ctx, id),
		LinkURL:  r.lookupLink(ctx, id),
	}
	if info.LinkURL == "" {
		info.LinkURL = searchFallbackURL(id)
	}

	r.mu.Lock()
	if len(r.cache) >= maxCacheEntries {
		r.cache = make(map[track.Identity]Info)
	}
	r.cache[id] = info
	r.mu.Unlock()
	return info
}

type deezerResponse struct {
	Data []struct {
		Album struct {
			CoverXL     string `json:"cover_xl"`
			CoverBig    string `json:"cover_big"`
			CoverMedium string `json:"cover_medium"`
		} `json:"album"`
	} `json:"data"`
}

// lookupCover queries Deezer track search and returns the largest
// available cover, or "" on any failure.
func (r *Resolver) lookupCover(ctx context.Context, id track.Identity) string {
	u := fmt.Sprintf("%s/search/track?q=%s&limit=1", r.deezerBase, url.QueryEscape(id.Query()))
	var resp deezerResponse
	if err := r.getJSON(ctx, u, &resp); err != nil {
		return ""
	}
	if len(resp.Data) == 0 {
		return ""
	}
	album := resp.Data[0].Album
	switch {
	case album.CoverXL != "":
		return album.CoverXL
	case album.CoverBig != "":
		return album.CoverBig
	default:
		return album.CoverMedium
	}
}

type itunesResponse struct {
	Results []struct {
		ArtistName   string `json:"artistName"`
		TrackName    string `json:"trackName"`
		TrackViewURL string `json:"trackViewUrl"`
	} `json:"results"`
}

// lookupLink queries the iTunes Search API and returns the first result
// whose artist and title plausibly match, rewritten to a music.apple.com
// URL. Returns "" on any failure or when nothing matches.
func (r *Resolver) lookupLink(ctx context.Context, id track.Identity) string {
	term := strings.TrimSpace(id.Title + " " + id.Artist)
	u := fmt.Sprintf("%s/search?term=%s&media=music&entity=song&limit=5", r.itunesBase, url.QueryEscape(term))
	var resp itunesResponse
	if err := r.getJSON(ctx, u, &resp); err != nil {
		return ""
	}
	for _, res := range resp.Results {
		if res.TrackViewURL == "" {
			continue
		}
		if !looseMatch(id.Artist, res.ArtistName) || !looseMatch(id.Title, res.TrackName) {
			continue
		}
		return strings.Replace(res.TrackViewURL, "itunes.apple.com", "music.apple.com", 1)
	}
	return ""
}

// looseMatch reports whether either string contains the other,
// case-insensitively. Search results frequently decorate names with
// "(feat. ...)" suffixes and the like.
func looseMatch(want, got string) bool {
	w := strings.ToLower(want)
	g := strings.ToLower(got)
	return strings.Contains(g, w) || strings.Contains(w, g)
}

func searchFallbackURL(id track.Identity) string {
	q := strings.TrimSpace(id.Artist + " " + id.Title)
	if q == "" {
		return appleMusicHome
	}
	return "https://music.apple.com/search?term=" + url.QueryEscape(q)
}

func (r *Resolver) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lookup status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
