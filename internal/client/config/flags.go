package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags defines the configuration flags on fs. Values only take
// effect in Load when the flag was given explicitly.
func (l *Loader) RegisterFlags(fs *pflag.FlagSet) {
	f := &l.flags

	fs.StringVarP(&l.configPath, "config", "c", "", "path to JSON config file")

	fs.StringVar(&f.StoreDriver, "store", f.StoreDriver, "storage backend: sqlite, postgres, redis or memory")
	fs.StringVar(&f.StoreDSN, "dsn", f.StoreDSN, "SQLite file path or Postgres DSN")
	fs.StringVar(&f.RedisAddr, "redis-addr", f.RedisAddr, "Redis address (host:port)")
	fs.StringVar(&f.RedisPassword, "redis-password", f.RedisPassword, "Redis password")
	fs.IntVar(&f.RedisDB, "redis-db", f.RedisDB, "Redis database number")
	fs.StringVar(&f.Namespace, "namespace", f.Namespace, "key namespace of this device's state")
	fs.StringVar(&f.SealPassphrase, "passphrase", f.SealPassphrase, "encrypt persisted values with this passphrase")

	fs.DurationVar(&f.HydrationTimeout, "hydration-timeout", f.HydrationTimeout, "how long startup waits for persisted state")
	fs.DurationVar(&f.LoadTimeout, "load-timeout", f.LoadTimeout, "how long one-shot commands wait for the full state load")
	fs.DurationVar(&f.WriteTimeout, "write-timeout", f.WriteTimeout, "timeout of each write-through")

	fs.StringVarP(&f.GatewayAddr, "gateway", "g", f.GatewayAddr, "mobile-money gateway gRPC address (empty: local sandbox)")
	fs.DurationVar(&f.ChargeTimeout, "charge-timeout", f.ChargeTimeout, "timeout of a charge call")
	fs.Uint32Var(&f.BreakerMaxFailures, "breaker-failures", f.BreakerMaxFailures, "consecutive gateway failures that open the breaker")
	fs.DurationVar(&f.BreakerOpenTimeout, "breaker-open", f.BreakerOpenTimeout, "how long the breaker stays open")
	fs.IntVar(&f.ChargesPerMinute, "charges-per-minute", f.ChargesPerMinute, "charge attempts allowed per minute (0: unlimited)")
	fs.BoolVar(&f.StrictCharging, "strict-charging", f.StrictCharging, "refuse subscriptions paid with non mobile-money methods")
	fs.StringSliceVar(&f.SandboxDeclinePhones, "sandbox-decline", f.SandboxDeclinePhones, "phone numbers the sandbox gateway declines")

	fs.StringVar(&f.AMQPURL, "amqp-url", f.AMQPURL, "RabbitMQ URL to forward mode changes to")

	fs.StringVarP(&f.LogLevel, "log-level", "l", f.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&f.LogFormat, "log-format", f.LogFormat, "log format: text or json")
}

var flagSetters = map[string]func(dst, src *Config){
	"store":              func(d, s *Config) { d.StoreDriver = s.StoreDriver },
	"dsn":                func(d, s *Config) { d.StoreDSN = s.StoreDSN },
	"redis-addr":         func(d, s *Config) { d.RedisAddr = s.RedisAddr },
	"redis-password":     func(d, s *Config) { d.RedisPassword = s.RedisPassword },
	"redis-db":           func(d, s *Config) { d.RedisDB = s.RedisDB },
	"namespace":          func(d, s *Config) { d.Namespace = s.Namespace },
	"passphrase":         func(d, s *Config) { d.SealPassphrase = s.SealPassphrase },
	"hydration-timeout":  func(d, s *Config) { d.HydrationTimeout = s.HydrationTimeout },
	"load-timeout":       func(d, s *Config) { d.LoadTimeout = s.LoadTimeout },
	"write-timeout":      func(d, s *Config) { d.WriteTimeout = s.WriteTimeout },
	"gateway":            func(d, s *Config) { d.GatewayAddr = s.GatewayAddr },
	"charge-timeout":     func(d, s *Config) { d.ChargeTimeout = s.ChargeTimeout },
	"breaker-failures":   func(d, s *Config) { d.BreakerMaxFailures = s.BreakerMaxFailures },
	"breaker-open":       func(d, s *Config) { d.BreakerOpenTimeout = s.BreakerOpenTimeout },
	"charges-per-minute": func(d, s *Config) { d.ChargesPerMinute = s.ChargesPerMinute },
	"strict-charging":    func(d, s *Config) { d.StrictCharging = s.StrictCharging },
	"sandbox-decline":    func(d, s *Config) { d.SandboxDeclinePhones = s.SandboxDeclinePhones },
	"amqp-url":           func(d, s *Config) { d.AMQPURL = s.AMQPURL },
	"log-level":          func(d, s *Config) { d.LogLevel = s.LogLevel },
	"log-format":         func(d, s *Config) { d.LogFormat = s.LogFormat },
}

// applyFlags copies the flags explicitly set on fs from src into dst.
func applyFlags(dst, src *Config, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := flagSetters[f.Name]; ok {
			set(dst, src)
		}
	})
}
