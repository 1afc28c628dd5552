package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ProductionMode  = "production"
	DevelopmentMode = "development"
)

type Logger struct {
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
}

func New(mode string) *Logger {
	var config zap.Config
	switch mode {
	case ProductionMode:
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapLogger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: zapLogger, sugar: zapLogger.Sugar()}
}

type ctxKey string

var RequestIdKey ctxKey = "request_id"
var UserIdKey ctxKey = "user_id"

// WithContext returns a child logger carrying the request-scoped
// fields found in ctx.
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return l.Logger
	}
	fields := make([]zap.Field, 0, 2)
	if requestId, ok := ctx.Value(RequestIdKey).(string); ok {
		fields = append(fields, zap.String(string(RequestIdKey), requestId))
	}
	if userId, ok := ctx.Value(UserIdKey).(string); ok {
		fields = append(fields, zap.String(string(UserIdKey), userId))
	}
	return l.Logger.With(fields...)
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

var global *Logger

func SetGlobalLogger(l *Logger) {
	global = l
}

func GetGlobalLogger() *Logger {
	return global
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}
