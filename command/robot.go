package command

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zephyrtronium/noad/message"
	"github.com/zephyrtronium/noad/metrics"
	"github.com/zephyrtronium/noad/modlist"
)

// Gateway is the connection to chat as seen by commands and events.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Send sends a message to a channel.
	Send(ctx context.Context, msg message.Sent) error
	// Join joins a channel.
	Join(ctx context.Context, channel string) error
	// Leave leaves a channel.
	Leave(ctx context.Context, channel string) error
	// Ban bans the sender of a message from the channel where it was sent.
	Ban(ctx context.Context, msg *message.Received, reason string) error
	// Reconnect drops the current connection, if any, and starts a new one.
	Reconnect(ctx context.Context) error
}

// Publisher uploads text to a paste service.
type Publisher interface {
	// Publish uploads text and returns a URL where it can be viewed.
	Publish(ctx context.Context, text string) (string, error)
}

// Robot is the bot state as is visible to commands.
//
// Every event method serializes on the robot's lock, so handlers may use the
// Store and Registry freely. Gateway calls can wait on rate limits, so
// handlers make them through [Invocation.Defer].
type Robot struct {
	Log      *slog.Logger
	Store    *modlist.Store
	Registry *Registry
	Gateway  Gateway
	Paste    Publisher
	Metrics  *metrics.Metrics
	// Trigger is the prefix for commands, used in help output.
	Trigger string
	// Start is the time the robot started, for uptime.
	Start time.Time
	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time
	// Background runs deferred command work after the lock is released.
	// If nil, the work runs synchronously on the event's goroutine.
	Background func(ctx context.Context, work func(context.Context))

	mu sync.Mutex
}

func (robo *Robot) now() time.Time {
	if robo.Now == nil {
		return time.Now()
	}
	return robo.Now()
}

func (robo *Robot) background(ctx context.Context, work func(context.Context)) {
	if robo.Background == nil {
		work(ctx)
		return
	}
	robo.Background(ctx, work)
}

// Channels returns the joined channels.
func (robo *Robot) Channels() []string {
	robo.mu.Lock()
	defer robo.mu.Unlock()
	return robo.Store.Channels.All()
}

// List returns the entries of the named list. The result is false if no list
// has that name.
func (robo *Robot) List(name string) ([]string, bool) {
	robo.mu.Lock()
	defer robo.mu.Unlock()
	for _, l := range robo.Store.Lists() {
		if l.Name() == name {
			return l.All(), true
		}
	}
	return nil, false
}
