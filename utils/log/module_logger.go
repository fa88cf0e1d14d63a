package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modules that can get debug logging on their own with --debugModules.
const (
	ModuleCompare = "compare"
	ModuleDecode  = "decode"
	ModuleText    = "text"
	ModuleTable   = "table"
	ModuleXML     = "xml"
	ModuleJSON    = "json"
)

// ModuleLoggerFactory hands out named loggers that only log at debug level
// when debugging is on globally or for their module.
type ModuleLoggerFactory struct {
	baseLogger  *zap.Logger
	globalDebug bool
	moduleDebug map[string]bool
}

func NewModuleLoggerFactory(baseLogger *zap.Logger, globalDebug bool, debugModules []string) *ModuleLoggerFactory {
	moduleDebug := make(map[string]bool, len(debugModules))
	for _, m := range debugModules {
		moduleDebug[m] = true
	}
	return &ModuleLoggerFactory{
		baseLogger:  baseLogger,
		globalDebug: globalDebug,
		moduleDebug: moduleDebug,
	}
}

func (f *ModuleLoggerFactory) GetLogger(module string) *zap.Logger {
	named := f.baseLogger.Named(module)
	if f.IsDebugEnabled(module) {
		return named
	}
	return named.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelFilterCore{Core: core, minLevel: zapcore.InfoLevel}
	}))
}

func (f *ModuleLoggerFactory) IsDebugEnabled(module string) bool {
	return f.globalDebug || f.moduleDebug[module]
}

// levelFilterCore drops entries below minLevel.
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(level zapcore.Level) bool {
	return level >= c.minLevel && c.Core.Enabled(level)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return c.Core.Check(entry, ce)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}
