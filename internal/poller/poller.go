package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/musicord/musicord/internal/artwork"
	"github.com/musicord/musicord/internal/discord"
	"github.com/musicord/musicord/internal/metrics"
	"github.com/musicord/musicord/internal/probe"
	"github.com/musicord/musicord/internal/track"
)

// Session is the slice of the peer session manager the poll loop needs.
type Session interface {
	Publish(ctx context.Context, a *discord.Activity) error
	Clear(ctx context.Context) error
}

// Options carry the timing and display knobs from config.
type Options struct {
	// Interval between ticks.
	Interval time.Duration
	// PublishTimeout bounds each publish/clear call so a wedged peer
	// cannot stall the loop past one tick.
	PublishTimeout time.Duration
	// ShutdownTimeout bounds the final clear attempt on cancellation.
	ShutdownTimeout time.Duration
	// DisplayName is the activity name ("Listening to <DisplayName>").
	DisplayName string
}

// Poller drives probe → diff → publish on a fixed interval from a single
// goroutine. It owns the process-wide presence: initialized to None,
// mutated only after a confirmed publish or clear, force-cleared on
// shutdown.
type Poller struct {
	probe   probe.Probe
	session Session
	artwork *artwork.Resolver // nil disables lookups
	opts    Options

	mu       sync.RWMutex
	presence track.Presence

	// onChange is invoked after each confirmed presence transition.
	// Set before Run; called from the loop goroutine.
	onChange func(track.Presence)

	// playerDown remembers whether the last probe failed, so player
	// outages log once instead of every tick.
	playerDown bool
}

func New(p probe.Probe, session Session, resolver *artwork.Resolver, opts Options) *Poller {
	return &Poller{
		probe:   p,
		session: session,
		artwork: resolver,
		opts:    opts,
	}
}

// SetOnChange registers a presence-change hook. Must be called before Run.
func (p *Poller) SetOnChange(fn func(track.Presence)) {
	p.onChange = fn
}

// Presence returns a copy of the last confirmed presence. Safe to call
// from other goroutines (the status server reads it).
func (p *Poller) Presence() track.Presence {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.presence.Clone()
}

func (p *Poller) setPresence(pr track.Presence) {
	p.mu.Lock()
	p.presence = pr
	p.mu.Unlock()
	if p.onChange != nil {
		p.onChange(pr.Clone())
	}
}

// Run polls until ctx is cancelled, then makes one best-effort clear
// attempt bounded by the shutdown timeout so presence does not linger
// after the process exits.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("poller started (probe=%s, interval=%s)", p.probe.Name(), p.opts.Interval)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one probe → diff → act cycle. Every per-tick error is handled
// here: probe failures collapse into the not-playing branch, publish/clear
// failures leave the confirmed presence untouched so the next tick retries.
func (p *Poller) tick(ctx context.Context) {
	metrics.Ticks.Inc()

	snap, err := p.probe.Probe(ctx)
	if err != nil {
		metrics.ProbeFailures.Inc()
		if !p.playerDown {
			if errors.Is(err, probe.ErrUnavailable) {
				log.Printf("player unavailable: %v", err)
			} else {
				log.Printf("probe error: %v", err)
			}
			p.playerDown = true
		}
		snap = nil
	} else {
		p.playerDown = false
	}

	switch track.Diff(p.Presence(), snap) {
	case track.NoOp:

	case track.Clear:
		if err := p.clear(ctx); err != nil {
			metrics.PublishFailures.Inc()
			log.Printf("clear failed: %v", err)
			return
		}
		metrics.Clears.Inc()
		log.Printf("presence cleared")
		p.setPresence(track.Presence{Kind: track.None, PublishedAt: time.Now()})

	case track.Publish:
		activity := p.buildActivity(ctx, snap)
		cctx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
		err := p.session.Publish(cctx, activity)
		cancel()
		if err != nil {
			metrics.PublishFailures.Inc()
			log.Printf("publish failed: %v", err)
			return
		}
		metrics.Publishes.Inc()
		log.Printf("presence set: %q by %q (%s)", snap.Title, snap.Artist, track.KindFor(snap))
		p.setPresence(track.Presence{
			Kind:        track.KindFor(snap),
			Track:       snap,
			PublishedAt: time.Now(),
		})
	}
}

func (p *Poller) clear(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
	defer cancel()
	return p.session.Clear(cctx)
}

// shutdown issues the final clear. It uses a fresh context because the
// loop context is already cancelled by the time we get here.
func (p *Poller) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.ShutdownTimeout)
	defer cancel()
	if err := p.session.Clear(ctx); err != nil {
		log.Printf("final clear failed: %v", err)
		return
	}
	p.setPresence(track.Presence{Kind: track.None, PublishedAt: time.Now()})
	log.Printf("poller stopped")
}

// buildActivity assembles the rich-presence payload for a snapshot. A
// player-reported URL wins over the looked-up link; artwork lookups are
// best-effort and bounded by their own HTTP timeout.
func (p *Poller) buildActivity(ctx context.Context, snap *track.Snapshot) *discord.Activity {
	act := &discord.Activity{
		Type:    discord.ActivityTypeListening,
		Name:    p.opts.DisplayName,
		Details: snap.Title,
		State:   "by " + snap.Artist,
	}

	// A progress bar only makes sense while actually playing.
	if snap.Playing && snap.Duration > 0 {
		start := snap.CapturedAt.Add(-snap.Position)
		act.Timestamps = &discord.Timestamps{
			Start: start.Unix(),
			End:   start.Add(snap.Duration).Unix(),
		}
	}

	link := snap.URL
	if p.artwork != nil {
		info := p.artwork.Resolve(ctx, snap.Identity())
		if link == "" {
			link = info.LinkURL
		}
		if info.CoverURL != "" {
			act.Assets = &discord.Assets{
				LargeImage: info.CoverURL,
				LargeText:  snap.Album + " by " + snap.Artist,
			}
		}
	}
	if link != "" {
		act.Buttons = []discord.Button{{Label: "Listen on " + p.opts.DisplayName, URL: link}}
	}
	return act
}
