package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zephyrtronium/noad/message"
)

// channelName normalizes a channel argument.
func channelName(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "#"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// join adds a channel to the list and to every command's cooldowns, and
// defers directing the gateway to join it. It reports false if the channel
// was already listed.
func (robo *Robot) join(call *Invocation, ch string) bool {
	if !robo.Store.Channels.Add(ch) {
		return false
	}
	robo.Registry.AddChannel(ch)
	robo.Metrics.ChannelCount.Observe(float64(robo.Store.Channels.Len()))
	log := call.Log
	call.Defer(func(ctx context.Context) {
		if err := robo.Gateway.Join(ctx, ch); err != nil {
			log.ErrorContext(ctx, "couldn't join", slog.String("channel", ch), slog.Any("err", err))
		}
	})
	return true
}

// leave removes a channel from the list and from every command's cooldowns.
// The caller directs the gateway to leave.
func (robo *Robot) leave(ch string) bool {
	if !robo.Store.Channels.Remove(ch) {
		return false
	}
	robo.Registry.RemoveChannel(ch)
	robo.Metrics.ChannelCount.Observe(float64(robo.Store.Channels.Len()))
	return true
}

// part defers directing the gateway to leave channels.
func (robo *Robot) part(call *Invocation, chans []string) {
	if len(chans) == 0 {
		return
	}
	log := call.Log
	call.Defer(func(ctx context.Context) {
		for _, ch := range chans {
			if err := robo.Gateway.Leave(ctx, ch); err != nil {
				log.ErrorContext(ctx, "couldn't leave", slog.String("channel", ch), slog.Any("err", err))
			}
		}
	})
}

// reply defers sending a message. Gateway sends wait on rate limits, so
// handlers never send while the robot is locked.
func (robo *Robot) reply(call *Invocation, msg message.Sent) {
	log := call.Log
	call.Defer(func(ctx context.Context) {
		if err := robo.Gateway.Send(ctx, msg); err != nil {
			log.ErrorContext(ctx, "couldn't send reply", slog.String("to", msg.To), slog.Any("err", err))
		}
	})
}

// Join joins channels.
//   - args: channel names
func Join(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	for _, a := range m.Args {
		ch := channelName(a)
		if ch == "" {
			continue
		}
		robo.join(call, ch)
	}
	if err := robo.Store.Channels.Persist(ctx); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s added to list.", m.Name, plural(len(m.Args), "channel", "channels")))
	return nil
}

// Leave leaves channels.
//   - args: channel names
func Leave(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	var left []string
	for _, a := range m.Args {
		ch := channelName(a)
		if robo.leave(ch) {
			left = append(left, ch)
		}
	}
	if err := robo.Store.Channels.Persist(ctx); err != nil {
		robo.part(call, left)
		return err
	}
	// Reply before parting in case the invoking channel is one we're leaving.
	robo.reply(call, message.Format(m.Channel, "@%s, %s removed from list.", m.Name, plural(len(m.Args), "channel", "channels")))
	robo.part(call, left)
	return nil
}

// JoinMe joins the invoker's own channel.
// No args.
func JoinMe(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if robo.Store.Banned.Contains(m.Sender) {
		return nil
	}
	ch := channelName(m.Name)
	if ch == "" || !robo.join(call, ch) {
		return nil
	}
	if err := robo.Store.Channels.Persist(ctx); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, joined your channel.", m.Name))
	return nil
}

// LeaveMe leaves the invoker's own channel if it is joined.
// No args.
func LeaveMe(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	ch := channelName(m.Name)
	if !robo.leave(ch) {
		return nil
	}
	if err := robo.Store.Channels.Persist(ctx); err != nil {
		robo.part(call, []string{ch})
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, left your channel.", m.Name))
	robo.part(call, []string{ch})
	return nil
}

// Channels lists the joined channels.
// No args.
func Channels(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	all := robo.Store.Channels.All()
	robo.reply(call, message.Format(m.Channel, "@%s, connected %d channels: %s", m.Name, len(all), quoteList(all)))
	return nil
}

func quoteList(l []string) string {
	var b strings.Builder
	for i, s := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s'", s)
	}
	return b.String()
}
