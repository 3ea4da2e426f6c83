// Package config wires the handful of single-process env-var knobs the
// ramc driver and evaluator need: how many Parallel alternatives may run
// concurrently, the SOUFFLE_PROFILE flag, and how verbose commonlog
// should be. No ecosystem config library in
// the pack (spf13/viper appears once, in a standalone reference file,
// never in a complete example repo) targets knobs this small — see
// DESIGN.md for the stdlib-vs-viper tradeoff.
package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/tliron/commonlog"
)

// Config holds the resolved values of SOUFFLE_THREADS, SOUFFLE_PROFILE,
// and SOUFFLE_LOG, named after Soufflé's own env vars since this module
// reimplements its RAM/LVM pipeline.
type Config struct {
	// Threads bounds how many Parallel alternatives a single Evaluator
	// may run concurrently. 0 means "use runtime.GOMAXPROCS(0)".
	Threads int

	// Profile holds the parsed SOUFFLE_PROFILE flag. The evaluator does
	// not read it: LogSize is always logged at debug level, and
	// LogTimer, StopLogTimer and DebugInfo emit nothing whatever its
	// value.
	Profile bool

	// LogLevel is the commonlog verbosity passed to Configure: 0 is
	// warnings and above, 1 is debug, 2 is the chattiest (matches the
	// scale the teacher's cmd/kanso-lsp/main.go uses).
	LogLevel int
}

// Load reads SOUFFLE_THREADS, SOUFFLE_PROFILE, and SOUFFLE_LOG from the
// process environment, falling back to sensible defaults for any that
// are unset or malformed.
func Load() Config {
	cfg := Config{
		Threads:  0,
		Profile:  false,
		LogLevel: 0,
	}

	if v := os.Getenv("SOUFFLE_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Threads = n
		}
	}

	if v := os.Getenv("SOUFFLE_PROFILE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Profile = b
		}
	}

	if v := os.Getenv("SOUFFLE_LOG"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}

	return cfg
}

// EffectiveThreads resolves Threads == 0 to the runtime's default
// parallelism, the way Soufflé treats a thread count of 0.
func (c Config) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.GOMAXPROCS(0)
}

// ConfigureLogging points commonlog at the resolved LogLevel, the same
// call shape as the teacher's cmd/kanso-lsp/main.go.
func (c Config) ConfigureLogging() {
	commonlog.Configure(c.LogLevel, nil)
}
