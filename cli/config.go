package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/utils"
	"go.uber.org/zap"
)

func init() {
	Register("config", Config)
}

// ConfigFile is the name written by "config --generate".
const ConfigFile = "comparator.yaml"

func Config(ctx context.Context, logger *zap.Logger, _ *config.Config, _ ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "config",
		Short:   "Generate the comparator configuration file",
		Example: `comparator config --generate -p .`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.Validate(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			generate, _ := cmd.Flags().GetBool("generate")
			if !generate {
				return cmd.Help()
			}
			dir, _ := cmd.Flags().GetString("path")
			path := filepath.Join(dir, ConfigFile)
			if utils.CheckFileExists(path) {
				err := errors.New("config file already exists")
				utils.LogError(logger, err, "not overwriting the config file", zap.String("path", path))
				return err
			}
			if err := os.WriteFile(path, []byte(config.GetDefaultConfig()), 0o644); err != nil {
				utils.LogError(logger, err, "failed to write the config file", zap.String("path", path))
				return err
			}
			logger.Info("config file generated", zap.String("path", path))
			return nil
		},
	}

	err := cmdConfigurator.AddFlags(cmd)
	if err != nil {
		utils.LogError(logger, err, "failed to add config flags")
		return nil
	}
	return cmd
}
