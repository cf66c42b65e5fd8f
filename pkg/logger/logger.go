package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/d60-Lab/gossip-server/config"
)

var l = zap.NewNop()

// Init 按配置初始化全局 logger
func Init(cfg *config.Config) error {
	level := zapcore.InfoLevel
	if cfg != nil && cfg.Log.Level != "" {
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}

	zc := zap.NewProductionConfig()
	if cfg != nil && cfg.Server.Mode == "debug" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	l = logger
	return nil
}

// L 返回全局 logger
func L() *zap.Logger { return l }

func Sync() { _ = l.Sync() }

func Debug(msg string, fields ...zap.Field) { l.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { l.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { l.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { l.Error(msg, fields...) }
