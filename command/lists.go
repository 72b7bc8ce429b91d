package command

import (
	"context"
	"strings"

	"github.com/zephyrtronium/noad/fingerprint"
	"github.com/zephyrtronium/noad/message"
	"github.com/zephyrtronium/noad/modlist"
)

func (robo *Robot) isMod(m *message.Command) bool {
	return robo.Store.Mods.Contains(m.Sender)
}

// update applies f to each entry in l and persists it.
func update(ctx context.Context, l *modlist.List, entries []string, f func(*modlist.List, string) bool) error {
	for _, e := range entries {
		f(l, e)
	}
	return l.Persist(ctx)
}

func add(l *modlist.List, e string) bool    { return l.Add(e) }
func remove(l *modlist.List, e string) bool { return l.Remove(e) }

// fingerprints computes the fingerprints of args, skipping those that are
// empty.
func fingerprints(args []string) []string {
	r := make([]string, 0, len(args))
	for _, a := range args {
		if fp := fingerprint.Of(a); fp != "" {
			r = append(r, fp)
		}
	}
	return r
}

// AddMod adds moderators by user ID.
//   - args: user IDs
func AddMod(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Mods, m.Args, add); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s added to list.", m.Name, plural(len(m.Args), "UserID", "UserIDs")))
	return nil
}

// RemoveMod removes moderators by user ID.
//   - args: user IDs
func RemoveMod(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Mods, m.Args, remove); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s removed from list.", m.Name, plural(len(m.Args), "UserID", "UserIDs")))
	return nil
}

// Ban adds user IDs to the banned list, which keeps them from using joinme.
//   - args: user IDs
func Ban(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Banned, m.Args, add); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s banned.", m.Name, plural(len(m.Args), "user", "users")))
	return nil
}

// Unban removes user IDs from the banned list.
//   - args: user IDs
func Unban(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) || len(m.Args) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Banned, m.Args, remove); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s unbanned.", m.Name, plural(len(m.Args), "user", "users")))
	return nil
}

// AddLink adds advertising links. Each argument is a separate link.
//   - args: links
func AddLink(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) {
		return nil
	}
	fps := fingerprints(m.Args)
	if len(fps) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Links, fps, add); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s added to list.", m.Name, plural(len(m.Args), "link", "links")))
	return nil
}

// RemoveLink removes advertising links.
//   - args: links
func RemoveLink(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) {
		return nil
	}
	fps := fingerprints(m.Args)
	if len(fps) == 0 {
		return nil
	}
	if err := update(ctx, robo.Store.Links, fps, remove); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, %s removed from list.", m.Name, plural(len(m.Args), "link", "links")))
	return nil
}

// AddPhrase adds an advertising phrase. The entire argument is one phrase.
//   - args: phrase
func AddPhrase(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) {
		return nil
	}
	fp := fingerprint.Of(m.ArgString)
	if fp == "" {
		return nil
	}
	if err := update(ctx, robo.Store.Phrases, []string{fp}, add); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, phrase added to list.", m.Name))
	return nil
}

// RemovePhrase removes an advertising phrase.
//   - args: phrase
func RemovePhrase(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Message
	if !robo.isMod(m) {
		return nil
	}
	fp := fingerprint.Of(m.ArgString)
	if fp == "" {
		return nil
	}
	if err := update(ctx, robo.Store.Phrases, []string{fp}, remove); err != nil {
		return err
	}
	robo.reply(call, message.Format(m.Channel, "@%s, phrase removed from list.", m.Name))
	return nil
}

// dump formats every list for the data command.
func dump(s *modlist.Store) string {
	var b strings.Builder
	for i, l := range s.Lists() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Name())
		b.WriteString(":\n")
		for _, e := range l.All() {
			b.WriteString(e)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
