// Command corechess is the UCI entrypoint: it loads configuration, wires up
// logging, and runs the protocol loop against stdin/stdout. Grounded on the
// teacher's FrankyGo.go for the flag/config/profile wiring shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/pkg/profile"

	"github.com/kopperchess/corechess/internal/config"
	"github.com/kopperchess/corechess/internal/corelog"
	"github.com/kopperchess/corechess/internal/uci"
)

var logLevels = map[string]logging.Level{
	"critical": logging.CRITICAL,
	"error":    logging.ERROR,
	"warning":  logging.WARNING,
	"notice":   logging.NOTICE,
	"info":     logging.INFO,
	"debug":    logging.DEBUG,
}

func main() {
	configFile := flag.String("config", "./config/config.toml", "path to configuration settings file")
	logLvl := flag.String("loglvl", "", "log level (critical|error|warning|notice|info|debug)")
	cpuProfile := flag.Bool("profile", false, "write a CPU profile of this run to ./cpu.pprof")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechess: config %q not loaded, using defaults: %v\n", *configFile, err)
	}

	level := logging.Level(cfg.Log.Level)
	if lvl, ok := logLevels[*logLvl]; ok {
		level = lvl
	}
	corelog.SetLevel(level)

	uci.NewHandler(cfg).Loop()
}
