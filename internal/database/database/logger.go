package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm output through the service logger.
type gormLogger struct {
	logger *zap.SugaredLogger
	level  gormlogger.LogLevel
}

func newGormLogger(logger *zap.SugaredLogger) gormlogger.Interface {
	l := &gormLogger{logger: logger}
	if logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		return l.LogMode(gormlogger.Info)
	}
	return l.LogMode(gormlogger.Warn)
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{logger: l.logger, level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Errorw("gorm query error", "error", err, "duration", elapsed, "sql", sql, "rows", rows)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warnw("slow query", "duration", elapsed, "sql", sql, "rows", rows)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debugw("gorm query", "duration", elapsed, "sql", sql, "rows", rows)
	}
}
