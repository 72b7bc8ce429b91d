package modlist

import (
	"context"
	_ "embed"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQL is a backend storing lists in an SQLite database.
type SQL struct {
	db *sqlitex.Pool
}

var _ Backend = (*SQL)(nil)

//go:embed schema.sql
var schemaSQL string

// OpenSQL creates the list tables in db if needed.
// The db must remain open for the lifetime of the backend.
func OpenSQL(ctx context.Context, db *sqlitex.Pool) (*SQL, error) {
	conn, err := db.Take(ctx)
	defer db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection from pool: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
		return nil, fmt.Errorf("couldn't run migration: %w", err)
	}
	return &SQL{db: db}, nil
}

// Load loads a list in order.
func (s *SQL) Load(ctx context.Context, name string) ([]string, error) {
	conn, err := s.db.Take(ctx)
	defer s.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to load %s: %w", name, err)
	}
	st, err := conn.Prepare(`SELECT :list IN (SELECT list FROM list_names)`)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare statement to check %s: %w", name, err)
	}
	st.SetText(":list", name)
	ok, err := sqlitex.ResultBool(st)
	if err != nil {
		return nil, fmt.Errorf("couldn't check %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("list %s: %w", name, ErrNotExist)
	}
	var r []string
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":list": name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			r = append(r, stmt.ColumnText(0))
			return nil
		},
	}
	if err := sqlitex.Execute(conn, `SELECT entry FROM lists WHERE list = :list ORDER BY pos`, &opts); err != nil {
		return nil, fmt.Errorf("couldn't load %s: %w", name, err)
	}
	return r, nil
}

// Save replaces a list in a single transaction.
func (s *SQL) Save(ctx context.Context, name string, entries []string) (err error) {
	conn, err := s.db.Take(ctx)
	defer s.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get connection to save %s: %w", name, err)
	}
	defer sqlitex.Transaction(conn)(&err)
	opts := sqlitex.ExecOptions{Named: map[string]any{":list": name}}
	if err := sqlitex.Execute(conn, `INSERT OR IGNORE INTO list_names (list) VALUES (:list)`, &opts); err != nil {
		return fmt.Errorf("couldn't record %s: %w", name, err)
	}
	if err := sqlitex.Execute(conn, `DELETE FROM lists WHERE list = :list`, &opts); err != nil {
		return fmt.Errorf("couldn't clear %s: %w", name, err)
	}
	st, err := conn.Prepare(`INSERT INTO lists (list, pos, entry) VALUES (:list, :pos, :entry)`)
	if err != nil {
		return fmt.Errorf("couldn't prepare insert for %s: %w", name, err)
	}
	for i, e := range entries {
		st.SetText(":list", name)
		st.SetInt64(":pos", int64(i))
		st.SetText(":entry", e)
		if _, err := st.Step(); err != nil {
			return fmt.Errorf("couldn't insert into %s: %w", name, err)
		}
		if err := st.Reset(); err != nil {
			return fmt.Errorf("couldn't reset insert for %s: %w", name, err)
		}
	}
	return nil
}
