package main

import (
	"context"
	"log/slog"

	"gitlab.com/zephyrtronium/tmi"

	"github.com/zephyrtronium/noad/message"
)

// tmiMessage processes a PRIVMSG from TMI.
func (robo *Robot) tmiMessage(ctx context.Context, msg *tmi.Message) {
	m := message.FromTMI(msg)
	if m.Name == robo.tmi.me {
		// Our own messages are echoed when we have the tags capability.
		return
	}
	// Run the rest in a worker so that we don't block the message loop.
	work := func(ctx context.Context) {
		slog.DebugContext(ctx, "message", slog.String("in", m.Channel), slog.String("id", m.ID))
		robo.core.OnMessage(ctx, m)
		if cmd, ok := message.ParseCommand(robo.trigger, m); ok {
			robo.core.OnCommand(ctx, cmd)
		}
	}
	robo.enqueue(ctx, work)
}

func (robo *Robot) enqueue(ctx context.Context, work func(context.Context)) {
	var w chan func(context.Context)
	// Get a worker if one exists. Otherwise, spawn a new one.
	select {
	case w = <-robo.works:
	default:
		w = make(chan func(context.Context), 1)
		go worker(ctx, robo.works, w)
	}
	// Send it work.
	select {
	case <-ctx.Done():
		return
	case w <- work:
	}
}

// worker runs works for a while. The provided context is passed to each work.
func worker(ctx context.Context, works chan chan func(context.Context), ch chan func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case work := <-ch:
			work(ctx)
			// Replace ourselves in the pool if it needs additional capacity.
			// Otherwise, we're done.
			select {
			case works <- ch:
			default:
				return
			}
		}
	}
}
