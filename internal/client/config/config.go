package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for the appstate CLI.
//
// Units: every timeout is a time.Duration (e.g. 200*time.Millisecond).
type Config struct {
	StoreDriver    string
	StoreDSN       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Namespace      string
	SealPassphrase string

	HydrationTimeout time.Duration
	LoadTimeout      time.Duration
	WriteTimeout     time.Duration

	GatewayAddr          string
	ChargeTimeout        time.Duration
	BreakerMaxFailures   uint32
	BreakerOpenTimeout   time.Duration
	ChargesPerMinute     int
	StrictCharging       bool
	SandboxDeclinePhones []string

	AMQPURL string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreDriver = "sqlite"
	c.StoreDSN = "appstate.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.Namespace = "appstate"
	c.HydrationTimeout = 200 * time.Millisecond
	c.LoadTimeout = 10 * time.Second
	c.WriteTimeout = 5 * time.Second
	c.ChargeTimeout = 15 * time.Second
	c.BreakerMaxFailures = 3
	c.BreakerOpenTimeout = 30 * time.Second
	c.ChargesPerMinute = 5
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Loader binds command-line flags and builds a Config from every source.
type Loader struct {
	flags      Config
	configPath string
	envFiles   []string
}

// NewLoader returns a Loader reading the given dotenv files (default ".env").
func NewLoader(envFiles ...string) *Loader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	l := &Loader{envFiles: envFiles}
	l.flags.LoadDefaults()
	return l
}

// Load constructs a Config: defaults, then environment, then the JSON file,
// then flags explicitly set on fs. Later sources take precedence.
func (l *Loader) Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, l.envFiles); err != nil {
		return nil, err
	}

	path := l.configPath
	if path == "" {
		path = lookupEnv("CONFIG")
	}
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		applyFlags(cfg, &l.flags, fs)
	}
	return cfg, nil
}
