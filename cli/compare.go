package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.keploy.io/comparator/config"
	compareSvc "go.keploy.io/comparator/pkg/service/compare"
	"go.keploy.io/comparator/utils"
	"go.uber.org/zap"
)

func init() {
	Register("compare", Compare)
}

// ErrDifferences is returned when failOnDiff is set and a comparison did not
// pass.
var ErrDifferences = errors.New("differences found")

func Compare(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "compare",
		Short: "Compare one expected document with the actual one",
		Example: `  comparator compare -f text -e expected.txt -a actual.txt
  comparator compare -f xml -e exp.xml -a act.xml --rule sortAlphabetically=true --rule excludeXPath=//timestamp
  comparator compare -f json -e exp.json -a act.json -r rules.yaml -o json`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.Validate(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service", zap.String("command", cmd.Name()))
				return err
			}
			var comparer compareSvc.Service
			var ok bool
			if comparer, ok = svc.(compareSvc.Service); !ok {
				err := errors.New("service doesn't satisfy compare service interface")
				utils.LogError(logger, err, "invalid service")
				return err
			}

			job := config.ResolveJob(conf, config.Job{Expected: conf.Expected, Actual: conf.Actual})
			req, err := compareSvc.LoadRequest(job)
			if err != nil {
				utils.LogError(logger, err, "failed to load the comparison")
				return err
			}
			if conf.Debug {
				compareSvc.Dump(os.Stderr, req.Params)
			}

			res, err := comparer.Compare(ctx, req)
			if err != nil {
				return err
			}
			report := compareSvc.NewReport(compareSvc.JobResult{Name: req.Name, Format: req.Format, Result: res})
			if err := compareSvc.Render(cmd.OutOrStdout(), conf.Output, []compareSvc.Report{report}); err != nil {
				utils.LogError(logger, err, "failed to render the report")
				return err
			}

			sideBySide, _ := cmd.Flags().GetBool("sideBySide")
			if sideBySide && req.Format == compareSvc.FormatJSON && !res.Passed() {
				out, err := compareSvc.SideBySide(string(req.Expected), string(req.Actual))
				if err != nil {
					logger.Warn("failed to render the side by side diff", zap.Error(err))
				} else {
					_, _ = cmd.OutOrStdout().Write([]byte(out))
				}
			}

			if conf.FailOnDiff && !res.Passed() {
				return ErrDifferences
			}
			return nil
		},
	}

	err := cmdConfigurator.AddFlags(cmd)
	if err != nil {
		utils.LogError(logger, err, "failed to add compare flags")
		return nil
	}

	return cmd
}
