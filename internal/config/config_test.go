package config_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SOUFFLE_THREADS", "SOUFFLE_PROFILE", "SOUFFLE_LOG"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	cfg := config.Load()
	assert.Equal(t, 0, cfg.Threads)
	assert.False(t, cfg.Profile)
	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.EffectiveThreads())
}

func TestLoadParsesEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("SOUFFLE_THREADS", "4")
	os.Setenv("SOUFFLE_PROFILE", "true")
	os.Setenv("SOUFFLE_LOG", "1")

	cfg := config.Load()
	assert.Equal(t, 4, cfg.Threads)
	assert.True(t, cfg.Profile)
	assert.Equal(t, 1, cfg.LogLevel)
	assert.Equal(t, 4, cfg.EffectiveThreads())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	os.Setenv("SOUFFLE_THREADS", "not-a-number")
	os.Setenv("SOUFFLE_PROFILE", "maybe")

	cfg := config.Load()
	assert.Equal(t, 0, cfg.Threads)
	assert.False(t, cfg.Profile)
}
