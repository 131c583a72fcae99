// Package main is the entry point of the taskflow API server: a role-based
// task tracker with an audit trail and real-time assignment notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "taskflow-api: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configFile string
	migrate    string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("taskflow-api", pflag.ContinueOnError)
	fs.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML, JSON or TOML config file")
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, redo, reset, status, version) and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.migrate != "" {
		return runMigrations(ctx, cfg, opts.migrate, log)
	}

	app, err := bootstrap(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
