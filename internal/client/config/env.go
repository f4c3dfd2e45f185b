package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "APPSTATE_"

func lookupEnv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

// parseEnv loads dotenv files that exist and overlays cfg with APPSTATE_*
// variables.
func parseEnv(cfg *Config, files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var errs []error
	str := func(name string, dst *string) {
		if v := lookupEnv(name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := lookupEnv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v := lookupEnv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("STORE_DRIVER", &cfg.StoreDriver)
	str("STORE_DSN", &cfg.StoreDSN)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	num("REDIS_DB", &cfg.RedisDB)
	str("NAMESPACE", &cfg.Namespace)
	str("SEAL_PASSPHRASE", &cfg.SealPassphrase)
	dur("HYDRATION_TIMEOUT", &cfg.HydrationTimeout)
	dur("LOAD_TIMEOUT", &cfg.LoadTimeout)
	dur("WRITE_TIMEOUT", &cfg.WriteTimeout)
	str("GATEWAY_ADDR", &cfg.GatewayAddr)
	dur("CHARGE_TIMEOUT", &cfg.ChargeTimeout)
	dur("BREAKER_OPEN_TIMEOUT", &cfg.BreakerOpenTimeout)
	num("CHARGES_PER_MINUTE", &cfg.ChargesPerMinute)
	str("AMQP_URL", &cfg.AMQPURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v := lookupEnv("BREAKER_MAX_FAILURES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBREAKER_MAX_FAILURES: %w", EnvPrefix, err))
		} else {
			cfg.BreakerMaxFailures = uint32(n)
		}
	}
	if v := lookupEnv("STRICT_CHARGING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTRICT_CHARGING: %w", EnvPrefix, err))
		} else {
			cfg.StrictCharging = b
		}
	}
	if v := lookupEnv("SANDBOX_DECLINE"); v != "" {
		cfg.SandboxDeclinePhones = splitList(v)
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
