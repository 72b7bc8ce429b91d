package command_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/noad/command"
	"github.com/zephyrtronium/noad/message"
	"github.com/zephyrtronium/noad/metrics"
	"github.com/zephyrtronium/noad/modlist"
)

// gwCall is a recorded call to a gateway.
type gwCall struct {
	Op      string
	Channel string
	Text    string
}

type testGateway struct {
	mu    sync.Mutex
	calls []gwCall
}

func (g *testGateway) record(c gwCall) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	return nil
}

func (g *testGateway) Send(ctx context.Context, msg message.Sent) error {
	return g.record(gwCall{"send", msg.To, msg.Text})
}

func (g *testGateway) Join(ctx context.Context, channel string) error {
	return g.record(gwCall{"join", channel, ""})
}

func (g *testGateway) Leave(ctx context.Context, channel string) error {
	return g.record(gwCall{"leave", channel, ""})
}

func (g *testGateway) Ban(ctx context.Context, msg *message.Received, reason string) error {
	return g.record(gwCall{"ban", msg.Channel, msg.Sender + " " + reason})
}

func (g *testGateway) Reconnect(ctx context.Context) error {
	return g.record(gwCall{"reconnect", "", ""})
}

// take returns and clears the recorded calls.
func (g *testGateway) take() []gwCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.calls
	g.calls = nil
	return r
}

type testPaste struct {
	url   string
	err   error
	texts []string
}

func (p *testPaste) Publish(ctx context.Context, text string) (string, error) {
	p.texts = append(p.texts, text)
	return p.url, p.err
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testMetrics() *metrics.Metrics {
	counter := func(name string) metrics.Observer {
		return metrics.NewPromCounter(prometheus.NewCounter(prometheus.CounterOpts{Name: name}))
	}
	return &metrics.Metrics{
		TMIMsgsCount:    counter("messages"),
		TMICommandCount: counter("commands"),
		BanCount:        counter("bans"),
		PasteFailCount:  counter("paste_failures"),
		ChannelCount:    metrics.NewPromGauge(prometheus.NewGauge(prometheus.GaugeOpts{Name: "channels"})),
		CommandLatency:  metrics.NewPromObserverVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "command_latency"}, []string{"command"})),
		ClassifyLatency: metrics.NewPromHistogram(prometheus.NewHistogram(prometheus.HistogramOpts{Name: "classify_latency"})),
	}
}

var epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	robo  *command.Robot
	gw    *testGateway
	paste *testPaste
	clock *clock
	dir   modlist.Dir
}

// newFixture creates a robot with mod "1" in channel "bocchi" plus any other
// channels.
func newFixture(t *testing.T, channels ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := modlist.Dir(t.TempDir())
	store, _, err := modlist.Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	store.Mods.Add("1")
	store.Channels.Add("bocchi")
	for _, ch := range channels {
		store.Channels.Add(ch)
	}
	reg, err := command.NewRegistry(command.Builtin(), store.Channels.All())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		gw:    new(testGateway),
		paste: &testPaste{url: "https://paste.example/abc"},
		clock: &clock{t: epoch},
		dir:   dir,
	}
	f.robo = &command.Robot{
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:    store,
		Registry: reg,
		Gateway:  f.gw,
		Paste:    f.paste,
		Metrics:  testMetrics(),
		Trigger:  "#",
		Start:    epoch,
		Now:      f.clock.now,
	}
	return f
}

// cmd invokes a command from the given sender in bocchi.
func (f *fixture) cmd(sender, text string) {
	m := message.Received{Channel: "bocchi", Sender: sender, Name: "user" + sender, Text: text}
	c, ok := message.ParseCommand("#", &m)
	if !ok {
		panic("not a command: " + text)
	}
	f.robo.OnCommand(context.Background(), c)
}

func (f *fixture) load(t *testing.T, name string) []string {
	t.Helper()
	r, err := f.dir.Load(context.Background(), name)
	if err != nil && !errors.Is(err, modlist.ErrNotExist) {
		t.Fatal(err)
	}
	return r
}
