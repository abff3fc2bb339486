package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/flagx"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration so they may be strings like "30m" or
// integer nanoseconds. Zero values leave the current setting alone.
type JsonConfig struct {
	APIURL                string         `json:"api_url"`
	IdleTimeout           timex.Duration `json:"idle_timeout"`
	ActivityCheckInterval timex.Duration `json:"activity_check_interval"`
	ActivityDebounce      timex.Duration `json:"activity_debounce"`
	OTPLength             int            `json:"otp_length"`
	OTPResendCooldown     timex.Duration `json:"otp_resend_cooldown"`
	MinPasswordLength     int            `json:"min_password_length"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	RequestsPerSecond     float64        `json:"requests_per_second"`
	SessionKey            string         `json:"session_key"`
	StorageBackend        string         `json:"storage_backend"`
	DatabasePath          string         `json:"database_path"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPrefix           string         `json:"redis_prefix"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing happens. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setDuration(&cfg.IdleTimeout, jc.IdleTimeout)
	setDuration(&cfg.ActivityCheckInterval, jc.ActivityCheckInterval)
	setDuration(&cfg.ActivityDebounce, jc.ActivityDebounce)
	setInt(&cfg.OTPLength, jc.OTPLength)
	setDuration(&cfg.OTPResendCooldown, jc.OTPResendCooldown)
	setInt(&cfg.MinPasswordLength, jc.MinPasswordLength)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	if jc.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = jc.RequestsPerSecond
	}
	setString(&cfg.SessionKey, jc.SessionKey)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
