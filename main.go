package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/zephyrtronium/noad/command"
	"github.com/zephyrtronium/noad/metrics"
	"github.com/zephyrtronium/noad/modlist"
	"github.com/zephyrtronium/noad/paste"
)

var app = cli.Command{
	Name:  "noad",
	Usage: "Twitch chat bot that bans advertisers",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:  "lists",
			Usage: "Print stored moderation lists",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "Print only the named list",
				},
			},
			Action: cliLists,
		},
		{
			Name:  "migrate",
			Usage: "Copy moderation lists from text files into the configured storage",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "from",
					Usage:    "Directory containing list files",
					Required: true,
				},
			},
			Action: cliMigrate,
		},
	},
	Action: cliRun,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
	}
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	settings, err := loadSettings(cfg.Settings)
	if err != nil {
		return err
	}
	if !settings.ConsoleLog {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	backend, closer, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closer()
	store, missing, err := modlist.Open(ctx, backend)
	if err != nil {
		return err
	}
	for _, name := range missing {
		slog.InfoContext(ctx, "list does not exist, starting empty", slog.String("list", name))
	}

	var pc command.Publisher
	if cfg.Paste.Endpoint != "" {
		pc = paste.New(cfg.Paste.Endpoint, fseconds(cfg.Paste.Timeout))
	} else {
		slog.WarnContext(ctx, "no paste endpoint configured, data command disabled")
	}
	robo, err := New(store, pc, newMetrics(), cfg.Trigger, runtime.GOMAXPROCS(0))
	if err != nil {
		return err
	}
	robo.InitTwitch(settings, cfg.TMI)
	return robo.Run(ctx, cfg.HTTP.Listen)
}

func cliLists(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	backend, closer, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closer()
	store, _, err := modlist.Open(ctx, backend)
	if err != nil {
		return err
	}
	name := cmd.String("name")
	found := false
	for _, l := range store.Lists() {
		if name != "" && l.Name() != name {
			continue
		}
		found = true
		fmt.Printf("%s:\n", l.Name())
		for _, e := range l.All() {
			fmt.Println(e)
		}
	}
	if !found {
		return fmt.Errorf("no list named %q", name)
	}
	return nil
}

func cliMigrate(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	backend, closer, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closer()
	from := cmd.String("from")
	src, missing, err := modlist.Open(ctx, modlist.Dir(from))
	if err != nil {
		return fmt.Errorf("couldn't read lists from %s: %w", from, err)
	}
	return migrate(ctx, src, missing, backend)
}

// migrate saves each list in src that exists into dst.
func migrate(ctx context.Context, src *modlist.Store, missing []string, dst modlist.Backend) error {
	for _, l := range src.Lists() {
		if slices.Contains(missing, l.Name()) {
			slog.InfoContext(ctx, "skip missing list", slog.String("list", l.Name()))
			continue
		}
		n := modlist.NewList(l.Name(), dst, l.All())
		if err := n.Persist(ctx); err != nil {
			return err
		}
		slog.InfoContext(ctx, "migrated", slog.String("list", l.Name()), slog.Int("entries", n.Len()))
	}
	return nil
}

func loadConfig(ctx context.Context, cmd *cli.Command) (*Config, error) {
	file := cmd.String("config")
	if file == "" {
		cfg, _, err := Load(ctx, strings.NewReader(""))
		return cfg, err
	}
	r, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}

// metrics configuration
func newMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		TMIMsgsCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "noad",
					Subsystem: "tmi",
					Name:      "messages",
					Help:      "Number of PRIVMSGs received from TMI.",
				},
			),
		),
		TMICommandCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "noad",
					Subsystem: "tmi",
					Name:      "commands",
					Help:      "Number of command invocations received in Twitch chat.",
				},
			),
		),
		BanCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "noad",
					Subsystem: "moderation",
					Name:      "bans",
					Help:      "Number of users banned for advertising.",
				},
			),
		),
		PasteFailCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "noad",
					Subsystem: "paste",
					Name:      "failures",
					Help:      "Number of failed list uploads to the paste service.",
				},
			),
		),
		ChannelCount: metrics.NewPromGauge(
			prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "noad",
					Subsystem: "tmi",
					Name:      "channels",
					Help:      "Number of joined channels.",
				},
			),
		),
		CommandLatency: metrics.NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
					Namespace: "noad",
					Subsystem: "commands",
					Name:      "latency",
					Help:      "How long command handlers take in seconds",
				},
				[]string{"command"},
			),
		),
		ClassifyLatency: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
					Namespace: "noad",
					Subsystem: "moderation",
					Name:      "classify_latency",
					Help:      "How long it takes to check a message for advertising in seconds",
				},
			),
		),
	}
}
