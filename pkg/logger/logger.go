package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

// Options controls how a logger is built
type Options struct {
	// Level is a zap level name such as debug, info or warn. Empty means info.
	Level string
	// JSON switches from the colored console encoder to the production json encoder
	JSON bool
}

// New builds a zap.SugaredLogger writing to stdout
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	encoder := zapcore.NewConsoleEncoder(developmentEncoderConfig())
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(productionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level))
	return zap.New(core).With(buildFields()...).Sugar(), nil
}

func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

func buildFields() []zap.Field {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	fields := []zap.Field{zap.String("go_version", buildInfo.GoVersion)}
	for _, v := range buildInfo.Settings {
		if v.Key == "vcs.revision" && len(v.Value) >= 7 {
			fields = append(fields, zap.String("git_revision", v.Value[0:7]))
			break
		}
	}

	return fields
}

// Get returns the process logger. Until Set is called it is built from the
// LOG_LEVEL and JSON_LOG environment variables.
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return logger
	}

	opts := Options{
		Level: os.Getenv("LOG_LEVEL"),
		JSON:  os.Getenv("JSON_LOG") != "",
	}
	l, err := New(opts)
	if err != nil {
		log.Println(fmt.Errorf("defaulting to INFO: %w", err))
		opts.Level = ""
		l, _ = New(opts)
	}

	logger = l
	return logger
}

// Set replaces the process logger, typically once configuration has been read.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// FromCtx returns the Logger associated with the ctx. If no logger
// is associated, the process logger is returned.
func FromCtx(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
		return l
	}

	return Get()
}

// WithCtx returns a copy of ctx with the Logger attached.
func WithCtx(ctx context.Context, l *zap.SugaredLogger) context.Context {
	if lp, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
		if lp == l {
			// Do not store same logger.
			return ctx
		}
	}

	return context.WithValue(ctx, ctxKey{}, l)
}
