// Package config decodes the engine's TOML configuration file into a plain
// Config value. Grounded on the teacher's config/config.go,
// config/evalconfig.go and config/logconfig.go, but constructed as an
// explicit value passed into NewEngine/NewTable rather than read back out
// of package-level globals, per the spec's note on rehoming global mutable
// state (§9) -- only the Zobrist key tables keep that carve-out.
package config

import "github.com/BurntSushi/toml"

// Config is the full set of tunables the engine reads from a TOML file (or
// falls back to Default for, on a decode error).
type Config struct {
	Hash   HashConfig
	Log    LogConfig
	Search SearchConfig
}

// HashConfig controls the transposition table.
type HashConfig struct {
	SizeMB int `toml:"size_mb"`
}

// LogConfig controls logging verbosity.
type LogConfig struct {
	Level       int `toml:"level"`
	SearchLevel int `toml:"search_level"`
}

// SearchConfig tunes search behavior.
type SearchConfig struct {
	MaxDepth            int `toml:"max_depth"`
	DeltaPruningMargin  int `toml:"delta_pruning_margin"`
	CheckExtensionLimit int `toml:"check_extension_ply_limit"`

	// LogLevel is the search logger's verbosity (logging.Level's own
	// scale), settable at runtime via `setoption name SearchLogLevel`
	// independently of the rest of the engine's log level.
	LogLevel int `toml:"log_level"`

	// Threads records the UCI `Threads` option's value for client
	// compatibility; the search core is single-threaded per root (§5), so
	// this is never read back by anything in internal/search.
	Threads int `toml:"threads"`
}

// Default returns the configuration the engine ships with, matching the
// UCI option defaults advertised in the `uci` handshake (Hash default
// 1000 MB, min 10, max 16000, per spec §6).
func Default() Config {
	return Config{
		Hash: HashConfig{SizeMB: 1000},
		Log:  LogConfig{Level: 2, SearchLevel: 2},
		Search: SearchConfig{
			MaxDepth:            40,
			DeltaPruningMargin:  200,
			CheckExtensionLimit: 2,
			LogLevel:            2,
			Threads:             1,
		},
	}
}

// Load decodes a TOML file at path into a Config, falling back to Default
// (and returning the decode error for the caller to log) if the file is
// missing or malformed -- a resource error per spec §7, not fatal.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}
