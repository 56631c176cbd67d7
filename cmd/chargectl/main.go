package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/liamcoop/chargecast/internal/config"
	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/modelstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries command output; logs go to stderr
	if err := logger.Configure(os.Stderr, logger.FormatText); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, openPostgresStore)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// storeOpener opens the artifact registry.
type storeOpener func(ctx context.Context, databaseURL string) (modelstore.ArtifactStore, func() error, error)

func openPostgresStore(ctx context.Context, databaseURL string) (modelstore.ArtifactStore, func() error, error) {
	db, err := modelstore.OpenDB(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return modelstore.NewPostgresArtifactStore(db), db.Close, nil
}

func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}
	return 1
}

func newApp(cfg config.Config, openStore storeOpener) *cli.App {
	return &cli.App{
		Name:  "chargectl",
		Usage: "predict insurance charges and manage model artifacts",
		// main reports errors and picks the exit code
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "model source: file or postgres",
				Value: cfg.ModelSource,
			},
			&cli.StringFlag{
				Name:  "model-path",
				Usage: "artifact file used when --source=file",
				Value: cfg.ModelPath,
			},
			&cli.StringFlag{
				Name:  "model-name",
				Usage: "artifact name used when --source=postgres",
				Value: cfg.ModelName,
			},
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "PostgreSQL connection URL",
				Value: cfg.DatabaseURL,
			},
		},
		Commands: []*cli.Command{
			predictCommand(),
			modelCommand(openStore),
		},
	}
}
