package bootstrap

import (
	"flag"
	"os"
	"time"
)

// Config captures the development backend settings derived from CLI flags.
type Config struct {
	Addr        string
	DatabaseURL string
	Host        string
	BasePort    int
	RelayTTL    time.Duration
	LogJSON     bool
}

// LoadConfig parses CLI flags and builds a Config instance.
func LoadConfig() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Addr, "addr", ":8089", "address the backend listens on")
	flag.StringVar(&cfg.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string; empty runs in memory")
	flag.StringVar(&cfg.Host, "host", "127.0.0.1", "host placed in multiaddrs handed to new identities")
	flag.IntVar(&cfg.BasePort, "base-port", 4001, "first tcp port placed in issued multiaddrs")
	flag.DurationVar(&cfg.RelayTTL, "relay-ttl", 10*time.Minute, "duration an announced relay stays listed")
	flag.BoolVar(&cfg.LogJSON, "log-json", false, "emit request logs as JSON")

	flag.Parse()

	if cfg.Addr == "" {
		cfg.Addr = ":8089"
	}
	return cfg
}
