package logger

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.RWMutex
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// Init picks the encoder from the attached terminal: console output when
// stderr is a TTY (or dev is forced), JSON otherwise.
func Init(level string, dev bool) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}
	var cfg zap.Config
	if dev || isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		cfg = developmentConfig()
	} else {
		cfg = productionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return build(cfg)
}

func productionConfig() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func developmentConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return cfg
}

func build(cfg zap.Config) error {
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	setLogger(l)
	return nil
}

// setLogger swaps the package logger and the zap globals together.
func setLogger(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
	sugar = l.Sugar()
}

// Log returns the installed logger, or zap's global (a no-op until
// one of the Init functions ran).
func Log() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// S returns the sugared variant of Log.
func S() *zap.SugaredLogger {
	logMu.RLock()
	defer logMu.RUnlock()
	if sugar != nil {
		return sugar
	}
	return zap.S()
}

// Sync flushes buffered entries.
func Sync() {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
