package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zephyrtronium/noad/message"
)

// OnCommand handles a command invocation.
//
// The command runs only if it is known, the channel has a cooldown entry, and
// more than the command's cooldown has passed since its last run in the
// channel. Once the handler returns, the invocation time is recorded whether
// or not the handler did anything visible.
func (robo *Robot) OnCommand(ctx context.Context, cmd *message.Command) {
	robo.Metrics.TMICommandCount.Observe(1)
	log := robo.Log.With(
		slog.String("command", cmd.Command),
		slog.String("in", cmd.Channel),
		slog.Any("trace", uuid.New()),
	)
	robo.mu.Lock()
	call := robo.dispatch(ctx, log, cmd)
	robo.mu.Unlock()
	if call == nil || len(call.deferred) == 0 {
		return
	}
	// Deferred work runs in order, e.g. a reply before parting the channel
	// it goes to.
	deferred := call.deferred
	robo.background(ctx, func(ctx context.Context) {
		for _, work := range deferred {
			work(ctx)
		}
	})
}

// dispatch runs a command with the lock held. It returns nil if the command
// did not run.
func (robo *Robot) dispatch(ctx context.Context, log *slog.Logger, cmd *message.Command) *Invocation {
	c := robo.Registry.Lookup(cmd.Command)
	if c == nil {
		log.DebugContext(ctx, "unknown command")
		return nil
	}
	last, ok := robo.Registry.LastUse(c.Name, cmd.Channel)
	if !ok {
		log.WarnContext(ctx, "cooldown inconsistency: no entry for channel")
		return nil
	}
	now := robo.now()
	if now.Sub(last) <= c.Cooldown {
		log.DebugContext(ctx, "on cooldown", slog.Time("last", last))
		return nil
	}
	log.InfoContext(ctx, "run command",
		slog.String("sender", cmd.Sender),
		slog.String("name", cmd.Name),
		slog.Any("args", cmd.Args),
	)
	call := &Invocation{Message: cmd, Log: log}
	start := time.Now()
	robo.run(ctx, c, call)
	robo.Metrics.CommandLatency.Observe(time.Since(start).Seconds(), c.Name)
	robo.Registry.Stamp(c.Name, cmd.Channel, now)
	return call
}

func (robo *Robot) run(ctx context.Context, c *Command, call *Invocation) {
	defer func() {
		if r := recover(); r != nil {
			call.Log.ErrorContext(ctx, "command panicked", slog.Any("panic", r))
			call.deferred = nil
		}
	}()
	if err := c.Func(ctx, robo, call); err != nil {
		call.Log.ErrorContext(ctx, "command failed", slog.Any("err", err))
	}
}
