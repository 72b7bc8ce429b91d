package command

import (
	"fmt"
	"time"
)

// Registry is the set of commands with their per-channel cooldown state.
// A Registry is not safe for concurrent use; a [Robot] guards it with its
// lock.
type Registry struct {
	cmds  []*Command
	names map[string]*Command
}

// NewRegistry creates a registry of cmds with an entry for each channel.
// It returns an error if two commands have the same name.
func NewRegistry(cmds []Command, channels []string) (*Registry, error) {
	r := &Registry{
		cmds:  make([]*Command, 0, len(cmds)),
		names: make(map[string]*Command, len(cmds)),
	}
	for _, c := range cmds {
		if _, ok := r.names[c.Name]; ok {
			return nil, fmt.Errorf("duplicate command %q", c.Name)
		}
		if c.Cooldown < 0 {
			return nil, fmt.Errorf("command %q has negative cooldown %v", c.Name, c.Cooldown)
		}
		p := &Command{
			Name:        c.Name,
			Cooldown:    c.Cooldown,
			Description: c.Description,
			Func:        c.Func,
			last:        make(map[string]time.Time, len(channels)),
		}
		for _, ch := range channels {
			p.last[ch] = time.Time{}
		}
		r.cmds = append(r.cmds, p)
		r.names[p.Name] = p
	}
	return r, nil
}

// Lookup returns the command with the given name, or nil if there is none.
func (r *Registry) Lookup(name string) *Command {
	return r.names[name]
}

// All returns all commands in registration order.
func (r *Registry) All() []*Command {
	return r.cmds
}

// AddChannel adds a never-invoked entry for ch to every command.
// Commands that already have an entry keep it.
func (r *Registry) AddChannel(ch string) {
	for _, c := range r.cmds {
		if _, ok := c.last[ch]; !ok {
			c.last[ch] = time.Time{}
		}
	}
}

// RemoveChannel removes the entry for ch from every command.
func (r *Registry) RemoveChannel(ch string) {
	for _, c := range r.cmds {
		delete(c.last, ch)
	}
}

// Has reports whether the named command has an entry for ch.
func (r *Registry) Has(name, ch string) bool {
	_, ok := r.LastUse(name, ch)
	return ok
}

// LastUse returns the time the named command was last invoked in ch.
// The boolean is false if there is no such command or no entry for ch.
func (r *Registry) LastUse(name, ch string) (time.Time, bool) {
	c := r.names[name]
	if c == nil {
		return time.Time{}, false
	}
	t, ok := c.last[ch]
	return t, ok
}

// Stamp records t as the last invocation of the named command in ch.
// It does nothing if there is no entry for ch.
func (r *Registry) Stamp(name, ch string, t time.Time) {
	c := r.names[name]
	if c == nil {
		return
	}
	if _, ok := c.last[ch]; ok {
		c.last[ch] = t
	}
}
