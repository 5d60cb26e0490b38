// Package logging holds the process-wide slog logger. Components fetch
// it with L(); main configures it once from the environment.
package logging

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

type Options struct {
	Level string
	JSON  bool
}

var def atomic.Pointer[slog.Logger]

func init() {
	def.Store(newLogger(Options{}))
}

func Configure(opts Options) {
	def.Store(newLogger(opts))
}

func L() *slog.Logger { return def.Load() }

// InitFromEnv reads SIPHON_LOG_LEVEL and SIPHON_LOG_JSON.
func InitFromEnv() {
	opts := Options{Level: os.Getenv("SIPHON_LOG_LEVEL")}
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("SIPHON_LOG_JSON"))); err == nil {
		opts.JSON = b
	}
	Configure(opts)
}

func newLogger(opts Options) *slog.Logger {
	cfg := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(os.Stderr, cfg)
	} else {
		h = slog.NewTextHandler(os.Stderr, cfg)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
