package clarifyverify

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/clarify-verify/internal/config"
)

// newRunLogger writes to stderr in the configured format and, when logPath
// is set, tees JSON lines into that file. The returned func flushes and
// closes the file.
func newRunLogger(settings config.Common, stderr io.Writer, logPath string) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(settings.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse logging level %q: %w", settings.Logging.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var consoleEncoder zapcore.Encoder
	if settings.Logging.Format == config.LogFormatJSON {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(stderr), level)}

	var logFile *os.File
	if logPath != "" {
		logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", logPath, err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logFile), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeLogger := func() {
		_ = logger.Sync()
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return logger, closeLogger, nil
}
