package modlist

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a backend storing each list as a text file in a directory, one entry
// per line.
type Dir string

var _ Backend = Dir("")

func (d Dir) path(name string) string {
	return filepath.Join(string(d), name+".txt")
}

// Load reads a list file. Blank lines are skipped.
func (d Dir) Load(ctx context.Context, name string) ([]string, error) {
	b, err := os.ReadFile(d.path(name))
	if err != nil {
		return nil, err
	}
	var r []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		e := strings.TrimSpace(sc.Text())
		if e == "" {
			continue
		}
		r = append(r, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read %s: %w", d.path(name), err)
	}
	return r, nil
}

// Save writes a list file through a temporary file in the same directory so
// that the existing file is replaced only once the new one is complete.
func (d Dir) Save(ctx context.Context, name string, entries []string) (err error) {
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		return fmt.Errorf("couldn't create list directory: %w", err)
	}
	f, err := os.CreateTemp(string(d), name+".*.tmp")
	if err != nil {
		return fmt.Errorf("couldn't create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		w.WriteString(e)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("couldn't write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("couldn't sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't close %s: %w", name, err)
	}
	if err := os.Rename(f.Name(), d.path(name)); err != nil {
		return fmt.Errorf("couldn't replace %s: %w", name, err)
	}
	return nil
}
