package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend API URL
//	-i int      idle timeout in seconds
//	-s string   session storage backend: sqlite or redis
//	-d string   sqlite database path
//	-r string   redis address
//	-l string   log level
//
// The function filters os.Args to the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other loaders.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-s", "-d", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "backend API URL")
	idleTimeout := fs.Int("i", int(cfg.IdleTimeout.Seconds()), "idle timeout (in seconds)")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "session storage backend (sqlite|redis)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "sqlite database path")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -i only counts when given; otherwise sub-second values from env or
	// json would be truncated.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.IdleTimeout = time.Duration(*idleTimeout) * time.Second
		}
	})
}
