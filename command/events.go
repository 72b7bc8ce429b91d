package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/zephyrtronium/noad/advert"
	"github.com/zephyrtronium/noad/message"
)

// OnConnected joins every listed channel once the gateway has connected.
func (robo *Robot) OnConnected(ctx context.Context) {
	chans := robo.Channels()
	robo.Log.InfoContext(ctx, "connected", slog.Int("channels", len(chans)))
	robo.Metrics.ChannelCount.Observe(float64(len(chans)))
	for _, ch := range chans {
		if err := robo.Gateway.Join(ctx, ch); err != nil {
			robo.Log.ErrorContext(ctx, "couldn't join", slog.String("channel", ch), slog.Any("err", err))
		}
	}
}

// OnJoined records that the gateway joined a channel.
func (robo *Robot) OnJoined(ctx context.Context, channel string) {
	robo.Log.InfoContext(ctx, "joined channel", slog.String("channel", channel))
}

// OnLeft handles the gateway leaving a channel. If the channel is still
// listed, the departure was not ours, so the robot joins it again.
func (robo *Robot) OnLeft(ctx context.Context, channel string) {
	robo.mu.Lock()
	listed := robo.Store.Channels.Contains(channel)
	robo.mu.Unlock()
	if !listed {
		robo.Log.InfoContext(ctx, "left channel", slog.String("channel", channel))
		return
	}
	robo.Log.WarnContext(ctx, "left listed channel, rejoining", slog.String("channel", channel))
	if err := robo.Gateway.Join(ctx, channel); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't rejoin", slog.String("channel", channel), slog.Any("err", err))
	}
}

// OnDisconnected asks the gateway to reconnect.
func (robo *Robot) OnDisconnected(ctx context.Context) {
	robo.Log.WarnContext(ctx, "disconnected, reconnecting")
	if err := robo.Gateway.Reconnect(ctx); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't reconnect", slog.Any("err", err))
	}
}

// OnMessage checks a chat message for advertising and bans its sender if it
// is an ad.
func (robo *Robot) OnMessage(ctx context.Context, msg *message.Received) {
	robo.Metrics.TMIMsgsCount.Observe(1)
	start := time.Now()
	robo.mu.Lock()
	ad := advert.Check(msg, robo.Store.Phrases.All(), robo.Store.Links.All())
	robo.mu.Unlock()
	robo.Metrics.ClassifyLatency.Observe(time.Since(start).Seconds())
	if !ad {
		return
	}
	robo.Log.InfoContext(ctx, "ban advertiser",
		slog.String("in", msg.Channel),
		slog.String("user", msg.Name),
		slog.String("id", msg.ID),
		slog.String("text", msg.Text),
	)
	robo.Metrics.BanCount.Observe(1)
	if err := robo.Gateway.Ban(ctx, msg, "advertising."); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't ban", slog.String("in", msg.Channel), slog.String("user", msg.Name), slog.Any("err", err))
	}
}
