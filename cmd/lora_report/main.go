// Package main is the entry point of LoraReport.
// It loads the configuration, initializes the logger, constructs the reporter
// and collector roles and runs them until interrupted.
package main

import (
	"LoraReport/internal/core"
	"LoraReport/internal/util"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfgPath string
	var virtual bool

	flagSet := pflag.NewFlagSet("lora_report", pflag.ContinueOnError)
	flagSet.StringVarP(&cfgPath, "config", "c", "configs/config.yml", "path to configuration file")
	flagSet.BoolVar(&virtual, "virtual", false, "link the reporter and collector devices with a socat PTY pair")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := core.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	logger, err := util.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("using config", zap.String("path", cfgPath))

	if virtual {
		socat := util.NewSocatManager()
		defer socat.Cleanup()
		if err := socat.CreatePair(cfg.Reporter.Device, cfg.Collector.Device); err != nil {
			return err
		}
	}

	sys, err := core.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create system: %w", err)
	}
	if err := sys.StartAll(); err != nil {
		sys.StopAll()
		return fmt.Errorf("failed to start system: %w", err)
	}

	// wait for Ctrl+C or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	sys.StopAll()
	logger.Info("system stopped cleanly")
	return nil
}
