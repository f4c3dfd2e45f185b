package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/appstate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from a zero value.
type JsonConfig struct {
	StoreDriver          string          `json:"store_driver"`
	StoreDSN             string          `json:"store_dsn"`
	RedisAddr            string          `json:"redis_addr"`
	RedisPassword        string          `json:"redis_password"`
	RedisDB              *int            `json:"redis_db"`
	Namespace            string          `json:"namespace"`
	SealPassphrase       string          `json:"seal_passphrase"`
	HydrationTimeout     *timex.Duration `json:"hydration_timeout"`
	LoadTimeout          *timex.Duration `json:"load_timeout"`
	WriteTimeout         *timex.Duration `json:"write_timeout"`
	GatewayAddr          string          `json:"gateway_addr"`
	ChargeTimeout        *timex.Duration `json:"charge_timeout"`
	BreakerMaxFailures   *uint32         `json:"breaker_max_failures"`
	BreakerOpenTimeout   *timex.Duration `json:"breaker_open_timeout"`
	ChargesPerMinute     *int            `json:"charges_per_minute"`
	StrictCharging       *bool           `json:"strict_charging"`
	SandboxDeclinePhones []string        `json:"sandbox_decline_phones"`
	AMQPURL              string          `json:"amqp_url"`
	LogLevel             string          `json:"log_level"`
	LogFormat            string          `json:"log_format"`
}

// parseJSON overlays cfg with the keys present in the file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)
	setString(&cfg.Namespace, jc.Namespace)
	setString(&cfg.SealPassphrase, jc.SealPassphrase)
	setString(&cfg.GatewayAddr, jc.GatewayAddr)
	setString(&cfg.AMQPURL, jc.AMQPURL)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	setDuration(&cfg.HydrationTimeout, jc.HydrationTimeout)
	setDuration(&cfg.LoadTimeout, jc.LoadTimeout)
	setDuration(&cfg.WriteTimeout, jc.WriteTimeout)
	setDuration(&cfg.ChargeTimeout, jc.ChargeTimeout)
	setDuration(&cfg.BreakerOpenTimeout, jc.BreakerOpenTimeout)

	if jc.RedisDB != nil {
		cfg.RedisDB = *jc.RedisDB
	}
	if jc.BreakerMaxFailures != nil {
		cfg.BreakerMaxFailures = *jc.BreakerMaxFailures
	}
	if jc.ChargesPerMinute != nil {
		cfg.ChargesPerMinute = *jc.ChargesPerMinute
	}
	if jc.StrictCharging != nil {
		cfg.StrictCharging = *jc.StrictCharging
	}
	if jc.SandboxDeclinePhones != nil {
		cfg.SandboxDeclinePhones = jc.SandboxDeclinePhones
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
