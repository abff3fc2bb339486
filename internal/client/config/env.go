package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "CUPONCODE_"

// parseEnv overlays Config with CUPONCODE_* environment variables. A .env
// file is loaded first: the one named by -e/-env, or ./.env if it exists.
// Variables already set in the process environment win over the file.
//
// Unlike JSON and flags, malformed values are skipped and the previous
// value is kept.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	envString("API_URL", &cfg.APIURL)
	envDuration("IDLE_TIMEOUT", &cfg.IdleTimeout)
	envDuration("ACTIVITY_CHECK_INTERVAL", &cfg.ActivityCheckInterval)
	envDuration("ACTIVITY_DEBOUNCE", &cfg.ActivityDebounce)
	envInt("OTP_LENGTH", &cfg.OTPLength)
	envDuration("OTP_RESEND_COOLDOWN", &cfg.OTPResendCooldown)
	envInt("MIN_PASSWORD_LENGTH", &cfg.MinPasswordLength)
	envDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	envFloat("REQUESTS_PER_SECOND", &cfg.RequestsPerSecond)
	envString("SESSION_KEY", &cfg.SessionKey)
	envString("STORAGE", &cfg.StorageBackend)
	envString("DB_PATH", &cfg.DatabasePath)
	envString("REDIS_ADDR", &cfg.RedisAddr)
	envString("REDIS_PREFIX", &cfg.RedisPrefix)
	envString("LOG_LEVEL", &cfg.LogLevel)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envFloat(name string, dst *float64) {
	if v, ok := lookup(name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}
