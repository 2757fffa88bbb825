package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chartline/internal/core/version"
	"chartline/internal/platform/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:    "chartline",
		Usage:   "Compile clinical timelines into aligned training samples",
		Version: version.Info("chartline").String(),
		Commands: []*cli.Command{
			planCommand(),
			extractCommand(),
			describeCommand(),
			synthCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("chartline failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}
