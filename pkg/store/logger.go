package store

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter sends gorm's formatted log lines to zap.
type gormWriter struct {
	logger *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Warnf(format, args...)
}

func newGormLogger(logger *zap.Logger) gormlogger.Interface {
	return gormlogger.New(gormWriter{logger: logger.Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
