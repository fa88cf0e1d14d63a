package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

func init() {
	Register("outcomes", Outcomes)
}

// Outcomes lists the outcomes a difference can carry and whether they fail
// a comparison.
func Outcomes(_ context.Context, _ *zap.Logger, _ *config.Config, _ ServiceFactory, _ CmdConfigurator) *cobra.Command {
	return &cobra.Command{
		Use:   "outcomes",
		Short: "List the difference outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, o := range models.Outcomes {
				verdict := "pass"
				if o.IsFailure() {
					verdict = "fail"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", o, verdict); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
