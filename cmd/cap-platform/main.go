// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/cap/lib/config"
	"github.com/bureau-foundation/cap/lib/process"
	"github.com/bureau-foundation/cap/lib/snapshot"
	"github.com/bureau-foundation/cap/lib/version"
	"github.com/bureau-foundation/cap/mts"
	"github.com/bureau-foundation/cap/platform"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the platform config file (default: $"+config.EnvironmentVariable+")")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("cap-platform %s\n", version.Info())
		return nil
	}
	if pflag.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", pflag.Arg(0))
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, err := process.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	platformConfig, err := platformConfigFrom(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting platform",
		"version", version.Short(),
		"platform", platformConfig.Name,
		"socket_dir", platformConfig.SocketDir,
		"state_file", platformConfig.StateFile,
		"pid", os.Getpid(),
	)

	instance, err := platform.New(platformConfig, logger)
	if err != nil {
		return err
	}
	return instance.Run(ctx)
}

// platformConfigFrom converts a validated file config into the
// platform's runtime settings.
func platformConfigFrom(cfg *config.Config) (platform.Config, error) {
	compression, err := snapshot.ParseCompression(cfg.State.Compression)
	if err != nil {
		return platform.Config{}, fmt.Errorf("state.compression: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.Router.DeliveryRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Router.DeliveryRate), cfg.Router.DeliveryBurst)
	}

	return platform.Config{
		Name:           cfg.Platform.Name,
		Service:        cfg.Platform.Service,
		SocketDir:      cfg.Platform.SocketDir,
		RequestTimeout: cfg.RequestTimeout(),
		Router: mts.Config{
			DeliveryTimeout: cfg.DeliveryTimeout(),
			Limiter:         limiter,
			Breaker: mts.BreakerConfig{
				MaxFailures: cfg.Router.Breaker.MaxFailures,
				Timeout:     cfg.BreakerTimeout(),
				Interval:    cfg.BreakerInterval(),
			},
		},
		StateFile:   cfg.State.File,
		Compression: compression,
	}, nil
}
