package config

import "time"

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds runtime settings for the CuponCode CLI. Values are read
// once at startup.
//
// Fields:
//   - APIURL: backend endpoint the bridge sends requests to.
//   - IdleTimeout: inactivity after which the local session is dropped.
//   - ActivityCheckInterval, ActivityDebounce: activity monitor timing.
//   - OTPLength, OTPResendCooldown, MinPasswordLength: auth rules.
//   - RequestTimeout, RequestsPerSecond: bridge limits; zero rate means unlimited.
//   - StorageBackend: "sqlite" (DatabasePath) or "redis" (RedisAddr, RedisPrefix).
type Config struct {
	APIURL                string
	IdleTimeout           time.Duration
	ActivityCheckInterval time.Duration
	ActivityDebounce      time.Duration
	OTPLength             int
	OTPResendCooldown     time.Duration
	MinPasswordLength     int
	RequestTimeout        time.Duration
	RequestsPerSecond     float64
	SessionKey            string
	StorageBackend        string
	DatabasePath          string
	RedisAddr             string
	RedisPrefix           string
	LogLevel              string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://127.0.0.1:8080/exec"
	c.IdleTimeout = 30 * time.Minute
	c.ActivityCheckInterval = time.Minute
	c.ActivityDebounce = time.Second
	c.OTPLength = 6
	c.OTPResendCooldown = 60 * time.Second
	c.MinPasswordLength = 8
	c.RequestTimeout = 30 * time.Second
	c.RequestsPerSecond = 0
	c.SessionKey = "cuponcode_session"
	c.StorageBackend = StorageSQLite
	c.DatabasePath = "cuponcode.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "cuponcode:"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (and an optional .env file), JSON (if present) and
// command-line flags (if present). Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
