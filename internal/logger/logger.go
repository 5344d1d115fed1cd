// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// ecomm writes lifecycle, request, and error events to
// `<base>/logs/ecomm.log`.  Lumberjack rotates the file by size, compresses
// old segments, and prunes by age, so no external log-rotate job is needed.
// When attached to a TTY the same events are teed, human-readable, to
// stdout.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Paths.Logs, cfg.Log.Level, logger.IsTTY())
//	if err != nil { … }
//	defer log.Sync()
//
// Notes
// -----
// • ISO-8601 timestamps, lowercase levels, short caller.
// • The result replaces zap's globals, so zap.S() callers (config loader)
//   write to the same sinks after startup.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the active log file under the logs directory.
const FileName = "ecomm.log"

// New returns a *zap.SugaredLogger writing JSON to dir/ecomm.log at level.
// When tee is true a console core is attached as well.
func New(dir, level string, tee bool) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), lvl),
	}
	if tee {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stdout),
			lvl,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	)
	zap.ReplaceGlobals(z)

	s := z.Sugar()
	s.Infow("logger online", "level", lvl.String(), "tee", tee)
	return s, nil
}

// IsTTY reports whether stdout is a character device.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
