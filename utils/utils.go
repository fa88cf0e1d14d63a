// Package utils holds helpers shared by the cli and the services.
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is injected at build time through ldflags.
var Version string

// EnvPrefix prefixes every environment variable bound to a flag.
const EnvPrefix = "COMPARATOR"

// LogFile is where the cli mirrors its logs when set; it is attached to
// crash reports.
var LogFile string

// LogError logs err unless it is a context cancellation.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Error(msg, fields...)
}

func CheckFileExists(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	return true
}

// ReadInput reads a file, or stdin when path is "-".
func ReadInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// BindFlagsToViper binds every flag of cmd to viper under prefix and to the
// matching COMPARATOR_* environment variable.
func BindFlagsToViper(logger *zap.Logger, cmd *cobra.Command, prefix string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		key := flag.Name
		if prefix != "" {
			key = prefix + "." + flag.Name
		}
		env := strings.ToUpper(EnvPrefix + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if err := viper.BindPFlag(key, flag); err != nil {
			LogError(logger, err, "failed to bind flag to config", zap.String("flag", flag.Name))
			bindErr = err
		}
		if err := viper.BindEnv(key, env); err != nil {
			LogError(logger, err, "failed to bind environment variable to config", zap.String("env", env))
			bindErr = err
		}
	})
	return bindErr
}

func attachLogFileToSentry(path string) {
	if path == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetExtra("logfile", string(content))
	})
}

// HandlePanic recovers a panic, reports it to sentry and logs the stack.
// It must be deferred directly.
func HandlePanic(logger *zap.Logger) {
	if r := recover(); r != nil {
		attachLogFileToSentry(LogFile)
		sentry.CaptureException(errors.New(fmt.Sprint(r)))
		logger.Error("recovered from panic", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
		sentry.Flush(2 * time.Second)
	}
}
