package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"go.keploy.io/comparator/cli"
	"go.keploy.io/comparator/cli/provider"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/pkg/models"
	"go.keploy.io/comparator/utils"
	"go.keploy.io/comparator/utils/log"
	"go.uber.org/zap"
)

// version is the version of the comparator and will be injected during build by ldflags
var version string
var dsn string

func main() {
	os.Exit(run())
}

func run() int {
	if version == "" {
		version = "1-dev"
	}
	utils.Version = version

	logger, err := log.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start the logger:", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()
	defer utils.HandlePanic(logger)

	// Initialize sentry.
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          version,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		logger.Debug("Could not initialize sentry.", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	ctx, cancel := utils.NewCtx()
	defer cancel()

	conf := config.New()
	svcProvider := provider.NewServiceProvider(logger, conf)
	cmdConfigurator := provider.NewCmdConfigurator(logger, conf)
	rootCmd := cli.Root(ctx, logger, conf, svcProvider, cmdConfigurator)
	if rootCmd == nil {
		return 1
	}
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrDifferences) {
			utils.LogError(logger, err, "failed to run the command", zap.Int("code", models.ErrorCode(err)))
		}
		return 1
	}
	return 0
}
