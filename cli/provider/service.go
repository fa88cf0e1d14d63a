package provider

import (
	"context"
	"errors"

	"go.keploy.io/comparator/config"
	jsonMatcher "go.keploy.io/comparator/pkg/matcher/json"
	"go.keploy.io/comparator/pkg/matcher/table"
	"go.keploy.io/comparator/pkg/matcher/text"
	xmlMatcher "go.keploy.io/comparator/pkg/matcher/xml"
	"go.keploy.io/comparator/pkg/service/compare"
	"go.keploy.io/comparator/pkg/service/decode"
	"go.keploy.io/comparator/utils/log"
	"go.uber.org/zap"
)

type ServiceProvider struct {
	logger *zap.Logger
	cfg    *config.Config
}

func NewServiceProvider(logger *zap.Logger, cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{
		logger: logger,
		cfg:    cfg,
	}
}

// NewCompareService builds the compare service with every built-in format.
func NewCompareService(logger *zap.Logger, cfg *config.Config) *compare.Compare {
	loggers := log.NewModuleLoggerFactory(logger, cfg.Debug, cfg.DebugModules)
	svc := compare.New(loggers.GetLogger(log.ModuleCompare), decode.New(loggers.GetLogger(log.ModuleDecode)), cfg.Parallel)
	svc.Register(compare.FormatText, text.New(loggers.GetLogger(log.ModuleText)))
	svc.Register(compare.FormatTable, table.New(loggers.GetLogger(log.ModuleTable)))
	svc.Register(compare.FormatXML, xmlMatcher.New(loggers.GetLogger(log.ModuleXML)))
	svc.Register(compare.FormatJSON, jsonMatcher.New(loggers.GetLogger(log.ModuleJSON)))
	return svc
}

func (n *ServiceProvider) GetService(_ context.Context, cmd string) (interface{}, error) {
	switch cmd {
	case "compare", "batch":
		return NewCompareService(n.logger, n.cfg), nil
	default:
		return nil, errors.New("invalid command")
	}
}
