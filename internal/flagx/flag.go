// Package flagx lets several config loaders share os.Args without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belongs to allowedFlags,
// keeping each flag's value. Both "-c conf.json" and "-c=conf.json"
// forms are recognised. A following token that starts with "-" is never
// taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// stringFlag reads a single string option registered under a short and a
// long name. The last occurrence wins.
func stringFlag(short, long, usage string) string {
	var value string

	args := FilterArgs(os.Args[1:], []string{"-" + short, "-" + long})

	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.StringVar(&value, long, "", usage)
	fs.StringVar(&value, short, "", usage+" (short)")
	_ = fs.Parse(args)

	return value
}

// JsonConfigFlags returns the JSON config path given with -c or -config,
// or "" when neither is present.
func JsonConfigFlags() string {
	return stringFlag("c", "config", "Path to config file")
}

// EnvFileFlags returns the dotenv file path given with -e or -env,
// or "" when neither is present.
func EnvFileFlags() string {
	return stringFlag("e", "env", "Path to .env file")
}
