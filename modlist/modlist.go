// Package modlist implements the durable moderation lists: joined channels,
// moderator and banned user IDs, and advertising link and phrase fingerprints.
package modlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
)

// ErrNotExist is the error wrapped by backends when a list has never been
// saved.
var ErrNotExist = fs.ErrNotExist

// Backend is durable storage for lists.
type Backend interface {
	// Load returns the entries of the named list in order.
	// If the list does not exist, the error wraps [ErrNotExist].
	Load(ctx context.Context, name string) ([]string, error)
	// Save replaces the named list with entries. Either the entire list is
	// written or none of it is.
	Save(ctx context.Context, name string, entries []string) error
}

// Names of the lists in a [Store].
const (
	Channels = "channels"
	Mods     = "modsIDs"
	Banned   = "bannedIDs"
	Links    = "links"
	Phrases  = "phrases"
)

// List is an insertion-ordered set of strings backed by durable storage.
// It is not safe for concurrent use.
type List struct {
	name    string
	backend Backend
	entries []string
	set     map[string]struct{}
}

// NewList creates a list with initial entries. Duplicate and empty entries
// are dropped.
func NewList(name string, backend Backend, entries []string) *List {
	l := &List{
		name:    name,
		backend: backend,
		entries: make([]string, 0, len(entries)),
		set:     make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		if e != "" {
			l.Add(e)
		}
	}
	return l
}

// Name returns the name of the list.
func (l *List) Name() string {
	return l.name
}

// Add adds an entry to the end of the list.
// It reports false if the entry was already present.
func (l *List) Add(e string) bool {
	if _, ok := l.set[e]; ok {
		return false
	}
	l.set[e] = struct{}{}
	l.entries = append(l.entries, e)
	return true
}

// Remove removes an entry from the list.
// It reports false if the entry was not present.
func (l *List) Remove(e string) bool {
	if _, ok := l.set[e]; !ok {
		return false
	}
	delete(l.set, e)
	k := slices.Index(l.entries, e)
	l.entries = slices.Delete(l.entries, k, k+1)
	return true
}

// Contains reports whether e is in the list.
func (l *List) Contains(e string) bool {
	_, ok := l.set[e]
	return ok
}

// All returns a copy of the entries in insertion order.
func (l *List) All() []string {
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Persist writes the list to its backend.
func (l *List) Persist(ctx context.Context) error {
	if err := l.backend.Save(ctx, l.name, l.entries); err != nil {
		return fmt.Errorf("couldn't save %s: %w", l.name, err)
	}
	return nil
}

// Store is the complete set of moderation lists.
type Store struct {
	Channels *List
	Mods     *List
	Banned   *List
	Links    *List
	Phrases  *List
}

// Open loads all lists from a backend. Lists that do not exist yet are empty.
// Missing reports the names of such lists.
func Open(ctx context.Context, backend Backend) (s *Store, missing []string, err error) {
	load := func(name string) *List {
		if err != nil {
			return nil
		}
		entries, lerr := backend.Load(ctx, name)
		switch {
		case errors.Is(lerr, ErrNotExist):
			missing = append(missing, name)
		case lerr != nil:
			err = fmt.Errorf("couldn't load %s: %w", name, lerr)
			return nil
		}
		return NewList(name, backend, entries)
	}
	s = &Store{
		Channels: load(Channels),
		Mods:     load(Mods),
		Banned:   load(Banned),
		Links:    load(Links),
		Phrases:  load(Phrases),
	}
	if err != nil {
		return nil, nil, err
	}
	return s, missing, nil
}

// Lists returns the lists of the store in a fixed order.
func (s *Store) Lists() []*List {
	return []*List{s.Channels, s.Mods, s.Banned, s.Links, s.Phrases}
}
