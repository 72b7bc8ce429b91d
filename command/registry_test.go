package command_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/noad/command"
)

func TestNewRegistry(t *testing.T) {
	cases := []struct {
		name string
		cmds []command.Command
		ok   bool
	}{
		{"builtin", command.Builtin(), true},
		{"empty", nil, true},
		{"duplicate", []command.Command{{Name: "ping"}, {Name: "join"}, {Name: "ping"}}, false},
		{"negative", []command.Command{{Name: "ping", Cooldown: -time.Second}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := command.NewRegistry(c.cmds, []string{"bocchi"})
			if (err == nil) != c.ok {
				t.Errorf("wrong error: %v", err)
			}
		})
	}
}

func TestRegistryChannels(t *testing.T) {
	r, err := command.NewRegistry(command.Builtin(), []string{"bocchi", "ryou"})
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(r.All()))
	for _, c := range r.All() {
		names = append(names, c.Name)
	}
	want := []string{"ping", "join", "leave", "addmod", "removemod", "help", "channels", "addlink", "removelink", "addphrase", "removephrase", "joinme", "leaveme", "ban", "unban", "data"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("wrong command order (+got/-want):\n%s", diff)
	}
	if r.Lookup("ping") == nil || r.Lookup("Ping") != nil || r.Lookup("marriage") != nil {
		t.Error("wrong lookup results")
	}
	for _, c := range r.All() {
		if last, ok := r.LastUse(c.Name, "ryou"); !ok || !last.IsZero() {
			t.Errorf("%s has wrong initial entry: %v %v", c.Name, last, ok)
		}
	}

	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	r.Stamp("ping", "bocchi", t0)
	r.AddChannel("bocchi")
	if last, _ := r.LastUse("ping", "bocchi"); !last.Equal(t0) {
		t.Errorf("AddChannel reset existing entry: %v", last)
	}
	r.AddChannel("nijika")
	r.RemoveChannel("ryou")
	for _, c := range r.All() {
		if !r.Has(c.Name, "nijika") {
			t.Errorf("%s missing added channel", c.Name)
		}
		if r.Has(c.Name, "ryou") {
			t.Errorf("%s still has removed channel", c.Name)
		}
	}
	r.Stamp("ping", "ryou", t0)
	if r.Has("ping", "ryou") {
		t.Error("Stamp created an entry")
	}
	r.Stamp("nonexistent", "bocchi", t0)
	if r.Has("nonexistent", "bocchi") {
		t.Error("unknown command has an entry")
	}
}
