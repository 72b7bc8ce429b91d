package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/zephyrtronium/noad/message"
)

// Invocation is a command invocation. An Invocation and its fields must not
// be modified or retained by any command.
type Invocation struct {
	// Message is the parsed command. It is always non-nil.
	Message *message.Command
	// Log is a logger carrying the invocation's trace.
	Log *slog.Logger

	deferred []func(context.Context)
}

// Defer registers work to run after the command finishes and the robot's
// state is unlocked. Deferred works run sequentially in the order they were
// registered, even if the command returns an error. Deferred work must not
// touch the store or registry without going through Robot methods that lock.
func (inv *Invocation) Defer(work func(ctx context.Context)) {
	inv.deferred = append(inv.deferred, work)
}

// Func executes a command. A returned error is logged; it does not produce
// a reply.
type Func func(ctx context.Context, robo *Robot, call *Invocation) error

// Command is a chat command.
type Command struct {
	// Name is the command token following the trigger.
	Name string
	// Cooldown is the minimum time between invocations in a single channel.
	Cooldown time.Duration
	// Description is a short usage shown by help.
	Description string
	// Func is the command handler.
	Func Func

	// last holds the time of the last invocation per joined channel.
	// The zero time means never invoked.
	last map[string]time.Time
}
