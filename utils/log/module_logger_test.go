package log

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestModuleLoggerFactory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	tests := []struct {
		name        string
		globalDebug bool
		modules     []string
		module      string
		wantDebug   bool
	}{
		{name: "global debug", globalDebug: true, module: ModuleXML, wantDebug: true},
		{name: "module debug", modules: []string{ModuleTable}, module: ModuleTable, wantDebug: true},
		{name: "other module", modules: []string{ModuleTable}, module: ModuleJSON, wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewModuleLoggerFactory(base, tt.globalDebug, tt.modules)
			assert.Equal(t, tt.wantDebug, f.IsDebugEnabled(tt.module))

			before := logs.Len()
			l := f.GetLogger(tt.module)
			l.Debug("rule applied")
			l.Info("compared")
			got := logs.All()[before:]
			if tt.wantDebug {
				assert.Len(t, got, 2)
			} else {
				assert.Len(t, got, 1)
				assert.Equal(t, "compared", got[0].Message)
			}
			assert.Equal(t, tt.module, got[len(got)-1].LoggerName)
		})
	}
}

func TestChangeLogLevel(t *testing.T) {
	logger, err := New()
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = ChangeLogLevel(zapcore.DebugLevel)
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestColorEncoderStripsEscapesWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	buf, err := NewColor(cfg).EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "careful"}, nil)
	assert.NoError(t, err)
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "careful")
}
