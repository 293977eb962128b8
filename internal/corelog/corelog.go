// Package corelog is a thin wrapper over github.com/op/go-logging that
// hands out one *logging.Logger per subsystem, configured with a shared
// backend and format. Grounded on the teacher's logging/log.go, but
// threaded as explicit values into the structs that need a logger
// (Table, Engine, uci.Handler) instead of being read back out of package
// globals scattered across the codebase (spec §9's note on rehoming global
// mutable state).
package corelog

import (
	"os"
	"sync"

	"github.com/op/go-logging"
)

var (
	once    sync.Once
	backend logging.LeveledBackend
)

var format = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{shortpkg:-8.8s} %{level:-7.7s} %{message}`,
)

// SetLevel adjusts the log level for every logger handed out by Get. Level
// follows logging.Level's own scale (CRITICAL..DEBUG).
func SetLevel(level logging.Level) {
	ensureBackend()
	backend.SetLevel(level, "")
}

// SetModuleLevel adjusts the log level for a single subsystem (e.g.
// "search"), leaving every other subsystem's level untouched. Used by the
// UCI SearchLogLevel option, which only targets the search logger.
func SetModuleLevel(module string, level logging.Level) {
	ensureBackend()
	backend.SetLevel(level, module)
}

func ensureBackend() {
	once.Do(func() {
		raw := logging.NewLogBackend(os.Stderr, "", 0)
		formatted := logging.NewBackendFormatter(raw, format)
		backend = logging.AddModuleLevel(formatted)
		backend.SetLevel(logging.INFO, "")
	})
}

// Get returns the logger for the named subsystem (e.g. "search", "uci",
// "tt"), sharing the same backend and level across all subsystems.
func Get(subsystem string) *logging.Logger {
	ensureBackend()
	log := logging.MustGetLogger(subsystem)
	log.SetBackend(backend)
	return log
}
