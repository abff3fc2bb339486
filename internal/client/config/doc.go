// Package config loads runtime configuration for the CuponCode CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed CUPONCODE_, optionally loaded from a
//     .env file (-e or -env, otherwise ./.env when present).
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend API URL
//	-i int      idle timeout (seconds)
//	-s string   session storage backend: sqlite or redis
//	-d string   sqlite database path
//	-r string   redis address
//	-l string   log level
//
// # JSON schema
//
// Durations are timex.Duration values, so "30m" and integer nanoseconds
// are both accepted:
//
//	{
//	  "api_url": "https://script.example.com/macros/s/ID/exec",
//	  "idle_timeout": "30m",
//	  "otp_resend_cooldown": "60s",
//	  "storage_backend": "redis",
//	  "redis_addr": "127.0.0.1:6379"
//	}
//
// Malformed JSON or flags panic. Malformed environment values are ignored.
package config
