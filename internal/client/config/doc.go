// Package config loads runtime configuration for the appstate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed APPSTATE_, optionally read from a .env
//     file first. Variables already set in the process win over the file.
//  3. Optional JSON file selected with -c/--config or APPSTATE_CONFIG.
//  4. Command-line flags explicitly given, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "200ms" or
// integer nanoseconds. Absent keys keep their earlier value:
//
//	{
//	  "store_driver": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "hydration_timeout": "200ms",
//	  "gateway_addr": "payments.internal:50051",
//	  "strict_charging": true
//	}
package config
