package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/musicord/musicord/internal/artwork"
	"github.com/musicord/musicord/internal/config"
	"github.com/musicord/musicord/internal/discord"
	"github.com/musicord/musicord/internal/poller"
	"github.com/musicord/musicord/internal/probe"
	"github.com/musicord/musicord/internal/status"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	interval := flag.Duration("interval", 0, "Override poll interval")
	statusPort := flag.Int("status-port", 0, "Override status server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *interval > 0 {
		cfg.Poll.Interval = *interval
	}
	if *statusPort > 0 {
		cfg.Status.Port = *statusPort
	}

	var prb probe.Probe
	switch cfg.Player.Source {
	case "applescript":
		prb = probe.NewAppleScript()
	case "mpd":
		prb = probe.NewMPD(cfg.Player.MPDAddress)
	default:
		log.Fatalf("Unknown player source: %q", cfg.Player.Source)
	}

	manager := discord.NewManager(cfg.Discord.AppID, cfg.Discord.Timeout)
	defer manager.Close()

	var resolver *artwork.Resolver
	if cfg.Artwork.Enabled {
		resolver = artwork.NewResolver()
	}

	p := poller.New(prb, manager, resolver, poller.Options{
		Interval:        cfg.Poll.Interval,
		PublishTimeout:  cfg.Discord.Timeout,
		ShutdownTimeout: cfg.Poll.ShutdownTimeout,
		DisplayName:     cfg.Player.DisplayName,
	})

	if cfg.Status.Enabled {
		broadcaster := status.NewBroadcaster(p.Presence)
		p.SetOnChange(broadcaster.PresenceChanged)
		server := status.NewServer(p.Presence, broadcaster)
		mux := http.NewServeMux()
		server.SetupRoutes(mux)
		go func() {
			if err := status.ListenAndServe(cfg.Status.Host, cfg.Status.Port, mux); err != nil {
				log.Fatalf("Status server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		// A second signal skips the graceful clear.
		<-sigCh
		os.Exit(1)
	}()

	started := time.Now()
	p.Run(ctx)
	log.Printf("Exited cleanly after %s", time.Since(started).Round(time.Second))
}
