package command_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/noad/command"
	"github.com/zephyrtronium/noad/message"
)

func TestCooldown(t *testing.T) {
	f := newFixture(t)
	f.cmd("2", "#ping")
	want := []gwCall{{"send", "bocchi", "@user2, Pong! Uptime: 0s. Channels: 1"}}
	if diff := cmp.Diff(want, f.gw.take()); diff != "" {
		t.Errorf("wrong first ping (+got/-want):\n%s", diff)
	}
	t0 := f.clock.t
	// Exactly the cooldown is still too soon.
	f.clock.advance(10 * time.Second)
	f.cmd("2", "#ping")
	if got := f.gw.take(); len(got) != 0 {
		t.Errorf("ping ran during cooldown: %v", got)
	}
	if last, _ := f.robo.Registry.LastUse("ping", "bocchi"); !last.Equal(t0) {
		t.Errorf("dropped invocation changed last use: want %v, got %v", t0, last)
	}
	f.clock.advance(time.Nanosecond)
	f.cmd("2", "#ping")
	if got := f.gw.take(); len(got) != 1 {
		t.Errorf("ping didn't run after cooldown: %v", got)
	}
	if last, _ := f.robo.Registry.LastUse("ping", "bocchi"); !last.Equal(f.clock.t) {
		t.Errorf("run didn't update last use: want %v, got %v", f.clock.t, last)
	}
}

func TestCooldownPerChannel(t *testing.T) {
	f := newFixture(t, "ryou")
	ctx := context.Background()
	f.robo.OnCommand(ctx, &message.Command{Channel: "bocchi", Sender: "2", Name: "a", Command: "ping"})
	f.robo.OnCommand(ctx, &message.Command{Channel: "ryou", Sender: "2", Name: "a", Command: "ping"})
	f.robo.OnCommand(ctx, &message.Command{Channel: "bocchi", Sender: "2", Name: "a", Command: "help"})
	if got := f.gw.take(); len(got) != 3 {
		t.Errorf("cooldowns interfered across channels or commands: %v", got)
	}
}

func TestUnauthorizedConsumesCooldown(t *testing.T) {
	f := newFixture(t)
	f.cmd("2", "#addmod 3")
	if got := f.gw.take(); len(got) != 0 {
		t.Errorf("non-mod addmod replied: %v", got)
	}
	if f.robo.Store.Mods.Contains("3") {
		t.Error("non-mod added a mod")
	}
	if f.load(t, "modsIDs") != nil {
		t.Error("non-mod addmod persisted")
	}
	if last, _ := f.robo.Registry.LastUse("addmod", "bocchi"); !last.Equal(epoch) {
		t.Errorf("unauthorized invocation didn't consume cooldown: %v", last)
	}
	// Even a moderator has to wait now.
	f.cmd("1", "#addmod 3")
	if f.robo.Store.Mods.Contains("3") {
		t.Error("addmod ran during cooldown")
	}
}

func TestEmptyArgsSilent(t *testing.T) {
	cmds := []string{"#join", "#leave", "#addmod", "#removemod", "#addlink", "#removelink", "#addphrase", "#removephrase", "#ban", "#unban", "#addlink ...", "#addphrase 123"}
	for _, c := range cmds {
		t.Run(c, func(t *testing.T) {
			f := newFixture(t)
			f.cmd("1", c)
			if got := f.gw.take(); len(got) != 0 {
				t.Errorf("replied to empty args: %v", got)
			}
			for _, l := range f.robo.Store.Lists() {
				if l.Name() == "channels" || l.Name() == "modsIDs" {
					continue
				}
				if l.Len() != 0 {
					t.Errorf("%s changed: %v", l.Name(), l.All())
				}
			}
		})
	}
}

func TestDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.robo.OnCommand(ctx, &message.Command{Channel: "bocchi", Sender: "1", Name: "a", Command: "nonexistent"})
	f.robo.OnCommand(ctx, &message.Command{Channel: "bocchi", Sender: "1", Name: "a", Command: "PING"})
	f.robo.OnCommand(ctx, &message.Command{Channel: "kita", Sender: "1", Name: "a", Command: "ping"})
	if got := f.gw.take(); len(got) != 0 {
		t.Errorf("dropped commands replied: %v", got)
	}
	if f.robo.Registry.Has("ping", "kita") {
		t.Error("unknown channel got a cooldown entry")
	}
}

func TestHandlerFailure(t *testing.T) {
	var ran []string
	cmds := []command.Command{
		{
			Name: "explode",
			Func: func(ctx context.Context, robo *command.Robot, call *command.Invocation) error {
				ran = append(ran, "explode")
				call.Defer(func(ctx context.Context) { ran = append(ran, "deferred") })
				panic("boom")
			},
		},
		{
			Name: "fail",
			Func: func(ctx context.Context, robo *command.Robot, call *command.Invocation) error {
				ran = append(ran, "fail")
				return context.Canceled
			},
		},
	}
	f := newFixture(t)
	reg, err := command.NewRegistry(cmds, []string{"bocchi"})
	if err != nil {
		t.Fatal(err)
	}
	f.robo.Registry = reg
	f.cmd("1", "#explode")
	f.cmd("1", "#fail")
	if diff := cmp.Diff([]string{"explode", "fail"}, ran); diff != "" {
		t.Errorf("wrong handlers ran (+got/-want):\n%s", diff)
	}
	if got := f.gw.take(); len(got) != 0 {
		t.Errorf("failed handlers replied: %v", got)
	}
	for _, name := range []string{"explode", "fail"} {
		if last, _ := reg.LastUse(name, "bocchi"); !last.Equal(epoch) {
			t.Errorf("%s didn't consume cooldown: %v", name, last)
		}
	}
}

func TestDeferredRunsUnlocked(t *testing.T) {
	f := newFixture(t)
	var chans []string
	cmds := []command.Command{
		{
			Name: "later",
			Func: func(ctx context.Context, robo *command.Robot, call *command.Invocation) error {
				call.Defer(func(ctx context.Context) {
					// Channels takes the lock, so this deadlocks if the
					// dispatcher still holds it.
					chans = robo.Channels()
				})
				return nil
			},
		},
	}
	reg, err := command.NewRegistry(cmds, []string{"bocchi"})
	if err != nil {
		t.Fatal(err)
	}
	f.robo.Registry = reg
	var bg int
	f.robo.Background = func(ctx context.Context, work func(context.Context)) {
		bg++
		work(ctx)
	}
	f.cmd("2", "#later")
	if bg != 1 {
		t.Errorf("wrong number of background works: want 1, got %d", bg)
	}
	if diff := cmp.Diff([]string{"bocchi"}, chans); diff != "" {
		t.Errorf("wrong channels from deferred work (+got/-want):\n%s", diff)
	}
}

// stallGateway blocks one kind of gateway call until released.
type stallGateway struct {
	*testGateway
	op      string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *stallGateway) wait(op string) {
	if op != g.op {
		return
	}
	g.once.Do(func() { close(g.entered) })
	<-g.release
}

func (g *stallGateway) Send(ctx context.Context, msg message.Sent) error {
	g.wait("send")
	return g.testGateway.Send(ctx, msg)
}

func (g *stallGateway) Join(ctx context.Context, channel string) error {
	g.wait("join")
	return g.testGateway.Join(ctx, channel)
}

func TestGatewayWaitsUnlocked(t *testing.T) {
	chans := make([]string, 30)
	for i := range chans {
		chans[i] = fmt.Sprintf("ch%d", i)
	}
	cases := []struct {
		name string
		op   string
		text string
	}{
		{"join", "join", "#join " + strings.Join(chans, " ")},
		{"reply", "send", "#addmod 2"},
		{"ping", "send", "#ping"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			gw := &stallGateway{
				testGateway: f.gw,
				op:          c.op,
				entered:     make(chan struct{}),
				release:     make(chan struct{}),
			}
			f.robo.Gateway = gw
			f.robo.Store.Phrases.Add("kupifolloverov")
			f.robo.Store.Links.Add("examplehorse")
			cmdDone := make(chan struct{})
			go func() {
				defer close(cmdDone)
				f.cmd("1", c.text)
			}()
			select {
			case <-gw.entered:
			case <-time.After(5 * time.Second):
				t.Fatal("command never reached the gateway")
			}
			ad := &message.Received{Channel: "bocchi", Sender: "99", Name: "spammer", Text: "Купи фолловеров на example.horse", First: true}
			msgDone := make(chan struct{})
			go func() {
				defer close(msgDone)
				f.robo.OnMessage(context.Background(), ad)
			}()
			select {
			case <-msgDone:
			case <-time.After(time.Second):
				close(gw.release)
				t.Fatal("OnMessage blocked while a command waited on the gateway")
			}
			if got := f.robo.Channels(); len(got) == 0 {
				t.Error("no channels while a command waited on the gateway")
			}
			close(gw.release)
			<-cmdDone
			var bans int
			for _, call := range f.gw.take() {
				if call.Op == "ban" {
					bans++
				}
			}
			if bans != 1 {
				t.Errorf("wrong number of bans: want 1, got %d", bans)
			}
		})
	}
}

func TestDeferredInOrder(t *testing.T) {
	f := newFixture(t, "ryou")
	var wg sync.WaitGroup
	f.robo.Background = func(ctx context.Context, work func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(ctx)
		}()
	}
	f.cmd("1", "#leave bocchi ryou")
	wg.Wait()
	want := []gwCall{
		{"send", "bocchi", "@user1, channels removed from list."},
		{"leave", "bocchi", ""},
		{"leave", "ryou", ""},
	}
	if diff := cmp.Diff(want, f.gw.take()); diff != "" {
		t.Errorf("wrong gateway calls (+got/-want):\n%s", diff)
	}
}
