// Package flagx holds helpers for reading a handful of flags out of os.Args
// without clashing with the flag sets owned by other components.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A token
// following an allowed flag is treated as its value unless it starts with "-".
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// lookupString parses only the given aliases of one string flag from os.Args.
// When several aliases are present the last one wins.
func lookupString(usage string, names ...string) string {
	var value string

	dashed := make([]string, len(names))
	for i, n := range names {
		dashed[i] = "-" + n
	}

	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(discard{})
	for _, n := range names {
		fs.StringVar(&value, n, "", usage)
	}
	_ = fs.Parse(FilterArgs(os.Args[1:], dashed))

	return value
}

// ConfigFileFlag returns the JSON config path given by -c or -config, or "".
func ConfigFileFlag() string {
	return lookupString("Path to config file", "config", "c")
}

// EnvFileFlag returns the dotenv path given by -env, or "".
func EnvFileFlag() string {
	return lookupString("Path to .env file", "env")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
