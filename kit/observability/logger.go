package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	l *zap.SugaredLogger
}

func NewLogger() *Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewExample()
	}
	return &Logger{l: z.Sugar()}
}

func NewNopLogger() *Logger {
	return &Logger{l: zap.NewNop().Sugar()}
}

// NewLoggerWithCore writes to core, e.g. an observer core in tests.
func NewLoggerWithCore(core zapcore.Core) *Logger {
	return &Logger{l: zap.New(core).Sugar()}
}

// With returns a child logger carrying kv on every entry.
func (lg *Logger) With(kv ...any) *Logger {
	if lg == nil {
		return nil
	}
	return &Logger{l: lg.l.With(kv...)}
}

func (lg *Logger) Info(msg string, kv ...any) {
	if lg == nil {
		return
	}
	lg.l.Infow(msg, kv...)
}

func (lg *Logger) Warn(msg string, kv ...any) {
	if lg == nil {
		return
	}
	lg.l.Warnw(msg, kv...)
}

func (lg *Logger) Error(msg string, kv ...any) {
	if lg == nil {
		return
	}
	lg.l.Errorw(msg, kv...)
}

func (lg *Logger) Sync() error {
	if lg == nil {
		return nil
	}
	return lg.l.Sync()
}
