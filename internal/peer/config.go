package peer

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds client settings derived from CLI flags.
type Config struct {
	BackendURL string
	Token      string
	TokenFile  string
	Profile    string
	Relay      string
	Timeout    time.Duration
	NoColor    bool
	UseTUI     bool
	UseCLI     bool
	DataDir    string
	PeerDir    string
	LocalDB    string
}

// LoadConfig parses CLI flags and returns a populated Config.
func LoadConfig() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.BackendURL, "backend", "http://127.0.0.1:8089", "backend base url")
	flag.StringVar(&cfg.Token, "token", "", "session token; overrides the stored one")
	flag.StringVar(&cfg.TokenFile, "token-file", "", "where the session token is kept (default <peer dir>/session.token)")
	flag.StringVar(&cfg.Profile, "profile", "default", "local profile name, one data folder per profile")
	flag.StringVar(&cfg.Relay, "relay", "", "relay address to connect after sign in")
	flag.DurationVar(&cfg.Timeout, "timeout", 15*time.Second, "per request timeout")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "disable ANSI colors in CLI output")
	flag.BoolVar(&cfg.UseTUI, "tui", false, "enable terminal UI mode")
	flag.StringVar(&cfg.DataDir, "data-dir", "p2p-data", "base directory for per profile data")
	flag.StringVar(&cfg.LocalDB, "local-db", "", "path to the nickname and block list db (default <peer dir>/local.db)")

	flag.Parse()

	cfg.UseCLI = !cfg.UseTUI
	if err := cfg.ensureDirs(); err != nil {
		log.Fatalf("prepare data dir: %v", err)
	}
	return cfg
}

func (cfg *Config) ensureDirs() error {
	if cfg.DataDir == "" {
		cfg.DataDir = "p2p-data"
	}
	cfg.PeerDir = filepath.Join(cfg.DataDir, sanitizePathToken(cfg.Profile))
	if err := os.MkdirAll(cfg.PeerDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.PeerDir, err)
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(cfg.PeerDir, "session.token")
	}
	if cfg.LocalDB == "" {
		cfg.LocalDB = filepath.Join(cfg.PeerDir, "local.db")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return nil
}

func sanitizePathToken(val string) string {
	val = strings.TrimSpace(val)
	if val == "" {
		return "peer"
	}
	var b strings.Builder
	for _, r := range val {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_':
			b.WriteRune(r)
		case r == '.', r == ':':
			b.WriteRune('-')
		}
	}
	out := b.String()
	if out == "" {
		return "peer"
	}
	return out
}
