package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.keploy.io/comparator/config"
	compareSvc "go.keploy.io/comparator/pkg/service/compare"
	"go.keploy.io/comparator/utils"
	"go.uber.org/zap"
)

func init() {
	Register("batch", Batch)
}

func Batch(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "batch",
		Short: "Run every comparison listed under jobs in the config file",
		Example: `  comparator batch --configPath comparator.yaml
  comparator batch --configPath comparator.yaml -j 8 -o yaml`,
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

			reqs := make([]compareSvc.Request, 0, len(conf.Jobs))
			var loadErrs []compareSvc.JobResult
			for _, j := range conf.Jobs {
				j = config.ResolveJob(conf, j)
				req, err := compareSvc.LoadRequest(j)
				if err != nil {
					utils.LogError(logger, err, "failed to load job", zap.String("job", j.Name))
					loadErrs = append(loadErrs, compareSvc.JobResult{Name: j.Name, Format: j.Format, Err: err})
					continue
				}
				reqs = append(reqs, req)
			}

			results, batchErr := comparer.Batch(ctx, reqs)
			results = append(results, loadErrs...)

			reports := make([]compareSvc.Report, 0, len(results))
			passed := true
			for _, r := range results {
				report := compareSvc.NewReport(r)
				passed = passed && r.Err == nil && report.Passed
				reports = append(reports, report)
			}
			if err := compareSvc.Render(cmd.OutOrStdout(), conf.Output, reports); err != nil {
				utils.LogError(logger, err, "failed to render the report")
				return err
			}
			if batchErr != nil {
				return batchErr
			}
			if len(loadErrs) > 0 {
				return errors.New("some jobs could not be loaded")
			}
			if conf.FailOnDiff && !passed {
				return ErrDifferences
			}
			return nil
		},
	}

	err := cmdConfigurator.AddFlags(cmd)
	if err != nil {
		utils.LogError(logger, err, "failed to add batch flags")
		return nil
	}

	return cmd
}
