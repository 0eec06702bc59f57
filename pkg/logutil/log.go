// Package logutil builds the structured loggers used across the executor.
package logutil

import (
	"strings"
	"sync/atomic"

	"github.com/kasuganosora/aggexec/pkg/config"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var bgLogger atomic.Pointer[zap.Logger]

// ParseLevel 解析日志级别，不区分大小写
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, domain.NewErrInvalidConfig("log.level", err.Error())
	}
	return l, nil
}

// NewLogger 根据日志配置创建 zap 日志器。
// Format "json" uses the JSON encoder; anything else uses the console encoder.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(cfg.Format, "json") {
		zc.Encoding = "json"
	} else {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zc.Build()
}

// BgLogger returns the process-wide logger. It is a no-op logger until
// SetBgLogger is called.
func BgLogger() *zap.Logger {
	if l := bgLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetBgLogger replaces the process-wide logger.
func SetBgLogger(l *zap.Logger) {
	bgLogger.Store(l)
}

// OrNop returns l, or the process-wide logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return BgLogger()
	}
	return l
}
