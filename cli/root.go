package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"go.keploy.io/comparator/cli/provider"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/utils"
	"go.uber.org/zap"
)

func Root(ctx context.Context, logger *zap.Logger, conf *config.Config, svcFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:           "comparator",
		Short:         "Compare expected and actual text, tables, XML and JSON",
		Example:       provider.RootExamples,
		Version:       utils.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpTemplate(provider.RootCustomHelpTemplate)
	rootCmd.SetVersionTemplate(provider.VersionTemplate)

	err := cmdConfigurator.AddFlags(rootCmd)
	if err != nil {
		utils.LogError(logger, err, "failed to set flags")
		return nil
	}

	names := make([]string, 0, len(Registered))
	for name := range Registered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c := Registered[name](ctx, logger, conf, svcFactory, cmdConfigurator); c != nil {
			rootCmd.AddCommand(c)
		}
	}
	return rootCmd
}
