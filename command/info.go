package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zephyrtronium/noad/message"
)

// Ping replies with uptime and the number of joined channels.
// No args.
func Ping(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	up := Uptime(robo.now().Sub(robo.Start))
	robo.reply(call, message.Format(m.Channel, "@%s, Pong! Uptime: %s. Channels: %d", m.Name, up, robo.Store.Channels.Len()))
	return nil
}

// Help describes a command, or lists all commands without an argument.
//   - args: optional command name
func Help(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if len(m.Args) == 0 {
		all := robo.Registry.All()
		names := make([]string, len(all))
		for i, c := range all {
			names[i] = c.Name
		}
		robo.reply(call, message.Format(m.Channel, "@%s, total %d commands: %s", m.Name, len(names), strings.Join(names, ", ")))
		return nil
	}
	name := strings.TrimPrefix(m.Args[0], robo.Trigger)
	c := robo.Registry.Lookup(name)
	if c == nil {
		robo.reply(call, message.Format(m.Channel, "@%s, command not found.", m.Name))
		return nil
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s (cooldown %v): %s", m.Name, c.Name, c.Cooldown, c.Description))
	return nil
}

// Data uploads the contents of every list to the paste service and replies
// with the link. The upload happens after the robot's state is unlocked.
// No args.
func Data(ctx context.Context, robo *Robot, call *Invocation) error {
	ch, name, log := call.Message.Channel, call.Message.Name, call.Log
	if robo.Paste == nil {
		robo.Metrics.PasteFailCount.Observe(1)
		log.WarnContext(ctx, "no paste service configured")
		robo.reply(call, message.Format(ch, "@%s, couldn't upload data, try again later.", name))
		return nil
	}
	text := dump(robo.Store)
	call.Defer(func(ctx context.Context) {
		url, err := robo.Paste.Publish(ctx, text)
		if err != nil {
			robo.Metrics.PasteFailCount.Observe(1)
			log.ErrorContext(ctx, "couldn't upload data", slog.Any("err", err))
			err = robo.Gateway.Send(ctx, message.Format(ch, "@%s, couldn't upload data, try again later.", name))
		} else {
			log.InfoContext(ctx, "uploaded data", slog.String("url", url))
			err = robo.Gateway.Send(ctx, message.Format(ch, "@%s, data: %s", name, url))
		}
		if err != nil {
			log.ErrorContext(ctx, "couldn't send data reply", slog.Any("err", err))
		}
	})
	return nil
}
