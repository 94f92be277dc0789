// Package config reads command line flags, with defaults taken from the
// environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/erazemk/premik/internal/draft"
)

// Draft store backends.
const (
	DraftStoreSQLite = "sqlite"
	DraftStoreRedis  = "redis"
)

// Config holds the server settings.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string

	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	DraftStore string
	DraftDelay time.Duration
	DraftTTL   time.Duration
	LookupTTL  time.Duration

	CORSOrigins []string
}

const usage = `Usage: premik [flags]

Flags:
  -d, -db <path>            SQLite database path (default: premik.sqlite3)
  -a, -addr <host:port>     listen address (default: :8080)
  -u, -user <name>          admin username on first run (default: Admin)
  -l, -log <path>           log file path (default: no file, stdout/stderr only)
  -b, -backend <url>        asset backend base URL (required)
      -backend-token <t>    bearer token for the asset backend
      -backend-timeout <d>  backend request timeout (default: 30s)
  -r, -redis <host:port>    Redis address for the lookup cache and drafts
      -redis-password <p>   Redis password
      -drafts <store>       draft store: sqlite or redis (default: sqlite)
      -draft-delay <d>      draft write debounce (default: 800ms)
      -draft-ttl <d>        Redis draft expiry, 0 keeps drafts (default: 720h)
      -lookup-ttl <d>       reference list cache lifetime (default: 10m)
      -cors <origins>       comma-separated allowed CORS origins
  -h, -help                 show this help and exit

Every flag defaults to the matching PREMIK_* environment variable, e.g.
PREMIK_BACKEND or PREMIK_REDIS_PASSWORD. A .env file in the working
directory is read if present.
`

// Load reads .env (if any) and parses args.
func Load(args []string, out io.Writer) (*Config, error) {
	_ = godotenv.Load()
	return Parse(args, osEnv{}, out)
}

// Env looks up environment variables.
type Env interface {
	Lookup(key string) (string, bool)
}

// Parse parses args with defaults from env.
func Parse(args []string, env Env, out io.Writer) (*Config, error) {
	d := defaults{env: env}
	fs := flag.NewFlagSet("premik", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	cfg := &Config{}
	stringVar(fs, &cfg.DBPath, d.str("DB", "premik.sqlite3"), "db", "d")
	stringVar(fs, &cfg.Addr, d.str("ADDR", ":8080"), "addr", "a")
	stringVar(fs, &cfg.AdminUser, d.str("USER", "Admin"), "user", "u")
	stringVar(fs, &cfg.LogPath, d.str("LOG", ""), "log", "l")
	stringVar(fs, &cfg.BackendURL, d.str("BACKEND", ""), "backend", "b")
	stringVar(fs, &cfg.BackendToken, d.str("BACKEND_TOKEN", ""), "backend-token")
	stringVar(fs, &cfg.RedisAddr, d.str("REDIS", ""), "redis", "r")
	stringVar(fs, &cfg.RedisPassword, d.str("REDIS_PASSWORD", ""), "redis-password")
	stringVar(fs, &cfg.DraftStore, d.str("DRAFTS", DraftStoreSQLite), "drafts")
	fs.DurationVar(&cfg.BackendTimeout, "backend-timeout", d.duration("BACKEND_TIMEOUT", 30*time.Second), "")
	fs.DurationVar(&cfg.DraftDelay, "draft-delay", d.duration("DRAFT_DELAY", draft.DefaultDelay), "")
	fs.DurationVar(&cfg.DraftTTL, "draft-ttl", d.duration("DRAFT_TTL", 30*24*time.Hour), "")
	fs.DurationVar(&cfg.LookupTTL, "lookup-ttl", d.duration("LOOKUP_TTL", 10*time.Minute), "")
	var cors string
	fs.StringVar(&cors, "cors", d.str("CORS", ""), "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if d.err != nil {
		return nil, d.err
	}

	for _, o := range strings.Split(cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("backend URL is required (-backend or PREMIK_BACKEND)")
	}
	switch c.DraftStore {
	case DraftStoreSQLite:
	case DraftStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis draft store needs -redis")
		}
	default:
		return fmt.Errorf("unknown draft store %q", c.DraftStore)
	}
	if c.DraftDelay <= 0 {
		return errors.New("draft delay must be positive")
	}
	return nil
}

func stringVar(fs *flag.FlagSet, p *string, value string, names ...string) {
	for _, name := range names {
		fs.StringVar(p, name, value, "")
	}
}

// defaults reads PREMIK_* variables, keeping the first parse error.
type defaults struct {
	env Env
	err error
}

func (d *defaults) str(key, fallback string) string {
	if v, ok := d.env.Lookup("PREMIK_" + key); ok {
		return v
	}
	return fallback
}

func (d *defaults) duration(key string, fallback time.Duration) time.Duration {
	v, ok := d.env.Lookup("PREMIK_" + key)
	if !ok || v == "" {
		return fallback
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		if d.err == nil {
			d.err = fmt.Errorf("PREMIK_%s: %w", key, err)
		}
		return fallback
	}
	return dur
}
