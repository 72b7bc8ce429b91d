package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgraph-io/badger/v4"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/noad/modlist"
)

// Load loads the process configuration from TOML and fills in defaults.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	defaultcfg(&cfg)
	switch cfg.Storage.Backend {
	case "text", "sqlite", "badger": // do nothing
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return &cfg, &md, nil
}

func expandcfg(cfg *Config, expand func(string) string) {
	cfg.Data = os.Expand(cfg.Data, expand)
	cfg.Settings = os.Expand(cfg.Settings, expand)
	cfg.Storage.DSN = os.Expand(cfg.Storage.DSN, expand)
	cfg.Paste.Endpoint = os.Expand(cfg.Paste.Endpoint, expand)
	cfg.HTTP.Listen = os.Expand(cfg.HTTP.Listen, expand)
}

func defaultcfg(cfg *Config) {
	if cfg.Data == "" {
		cfg.Data = "data"
	}
	if cfg.Settings == "" {
		cfg.Settings = filepath.Join(cfg.Data, "settings.txt")
	}
	if cfg.Trigger == "" {
		cfg.Trigger = "#"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "text"
	}
	if cfg.Storage.DSN == "" {
		switch cfg.Storage.Backend {
		case "text":
			cfg.Storage.DSN = cfg.Data
		case "sqlite":
			cfg.Storage.DSN = filepath.Join(cfg.Data, "lists.db")
		case "badger":
			cfg.Storage.DSN = filepath.Join(cfg.Data, "lists.badger")
		}
	}
	if cfg.Paste.Timeout == 0 {
		cfg.Paste.Timeout = 10
	}
	if cfg.TMI.Rate.Every == 0 {
		cfg.TMI.Rate.Every = 30
	}
	if cfg.TMI.Rate.Num == 0 {
		cfg.TMI.Rate.Num = 750
	}
	if cfg.TMI.Timeout == 0 {
		cfg.TMI.Timeout = 300
	}
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Config is the configuration for the bot process.
type Config struct {
	// Data is the directory holding the settings file and, for the text
	// backend, the list files.
	Data string `toml:"data"`
	// Settings is the path to the settings file holding credentials.
	// Defaults to settings.txt in the data directory.
	Settings string `toml:"settings"`
	// Trigger is the prefix that marks chat messages as commands.
	Trigger string `toml:"trigger"`
	// Storage configures where moderation lists live.
	Storage StorageCfg `toml:"storage"`
	// Paste configures the paste service used by the data command.
	Paste PasteCfg `toml:"paste"`
	// TMI configures the Twitch chat connection.
	TMI TMICfg `toml:"tmi"`
	// HTTP is the configuration for the HTTP API.
	HTTP HTTPCfg `toml:"http"`
}

// StorageCfg selects a list storage backend.
type StorageCfg struct {
	// Backend is one of text, sqlite, or badger.
	Backend string `toml:"backend"`
	// DSN is the directory for text, the SQLite connection string for
	// sqlite, or the database directory for badger.
	DSN string `toml:"dsn"`
	// Flags is a badger superflag string.
	Flags string `toml:"flags"`
}

type PasteCfg struct {
	// Endpoint is the base URL of a hastebin-compatible paste service.
	// There is no default. When empty, the data command always fails.
	Endpoint string `toml:"endpoint"`
	// Timeout is the per-request timeout in seconds.
	Timeout float64 `toml:"timeout"`
}

// TMICfg is the configuration for the Twitch chat connection.
type TMICfg struct {
	// Rate is the global outbound message rate limit.
	Rate Rate `toml:"rate"`
	// Timeout is the connection idle timeout in seconds.
	Timeout float64 `toml:"timeout"`
}

// Rate is a rate limit configuration: Num events per Every seconds.
type Rate struct {
	Every float64 `toml:"every"`
	Num   float64 `toml:"num"`
}

type HTTPCfg struct {
	Listen string `toml:"listen"`
}

// Settings is the credential configuration read from the settings file.
type Settings struct {
	// Nickname is the bot's login name.
	Nickname string
	// OAuthToken is the chat OAuth token, with or without its oauth: prefix.
	// It is also the Helix access token for bans, so it needs the
	// moderator:manage:banned_users scope.
	OAuthToken string
	// ConsoleLog enables log output.
	ConsoleLog bool
}

// LoadSettings parses a settings file of key:value lines.
// Unknown keys are ignored. Missing nickname or token is an error.
func LoadSettings(r io.Reader) (*Settings, error) {
	var s Settings
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "nickname":
			s.Nickname = strings.ToLower(v)
		case "oauthtoken":
			s.OAuthToken = v
		case "consolelog":
			s.ConsoleLog = v == "true"
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read settings: %w", err)
	}
	if s.Nickname == "" {
		return nil, errors.New("settings have no nickname")
	}
	if s.OAuthToken == "" {
		return nil, errors.New("settings have no oauthtoken")
	}
	return &s, nil
}

func loadSettings(file string) (*Settings, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open settings: %w", err)
	}
	defer f.Close()
	return LoadSettings(f)
}

// openBackend opens the configured list storage. The returned function
// releases any resources the backend holds.
func openBackend(ctx context.Context, cfg StorageCfg) (modlist.Backend, func() error, error) {
	switch cfg.Backend {
	case "text":
		return modlist.Dir(cfg.DSN), func() error { return nil }, nil
	case "sqlite":
		db, err := sqlitex.NewPool(cfg.DSN, sqlitex.PoolOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open sqlite lists: %w", err)
		}
		b, err := modlist.OpenSQL(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return b, db.Close, nil
	case "badger":
		opts := badger.DefaultOptions(cfg.DSN)
		opts = opts.FromSuperFlag(cfg.Flags)
		opts = opts.WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open badger lists: %w", err)
		}
		return modlist.NewKV(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
