package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/noad/command"
	"github.com/zephyrtronium/noad/metrics"
	"github.com/zephyrtronium/noad/modlist"
)

// Robot is the overall state of the bot process.
type Robot struct {
	// core is the state shared with commands and events.
	core *command.Robot
	// tmi is the Twitch chat client.
	tmi *client
	// trigger is the command prefix.
	trigger string
	// works is the worker queue.
	works chan chan func(context.Context)
	// metrics are the metrics exposed over HTTP.
	metrics *metrics.Metrics
}

// New creates a new robot around a loaded list store. poolSize is the number
// of idle workers kept for handling messages.
func New(store *modlist.Store, paste command.Publisher, mets *metrics.Metrics, trigger string, poolSize int) (*Robot, error) {
	cmds := command.Builtin()
	reg, err := command.NewRegistry(cmds, store.Channels.All())
	if err != nil {
		return nil, err
	}
	robo := &Robot{
		trigger: trigger,
		works:   make(chan chan func(context.Context), poolSize),
		metrics: mets,
	}
	robo.core = &command.Robot{
		Log:        slog.Default(),
		Store:      store,
		Registry:   reg,
		Paste:      paste,
		Metrics:    mets,
		Trigger:    trigger,
		Start:      time.Now(),
		Background: robo.enqueue,
	}
	return robo, nil
}

// InitTwitch sets up the Twitch chat connection.
func (robo *Robot) InitTwitch(s *Settings, cfg TMICfg) {
	robo.tmi = newClient(s, cfg, slog.Default())
	robo.core.Gateway = robo.tmi
}

// Run connects to chat and serves the HTTP API, if listen is non-empty,
// until ctx is canceled.
func (robo *Robot) Run(ctx context.Context, listen string) error {
	group, ctx := errgroup.WithContext(ctx)
	if robo.tmi != nil {
		group.Go(func() error { return robo.twitch(ctx) })
	}
	if listen != "" {
		group.Go(func() error { return robo.api(ctx, listen, new(http.ServeMux), robo.metrics.Collectors()) })
	}
	err := group.Wait()
	if err == context.Canceled {
		// If the first error is context canceled, then we are shutting down
		// normally in response to a sigint.
		err = nil
	}
	return err
}
