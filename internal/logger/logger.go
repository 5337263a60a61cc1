package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init replaces the global zap logger. Production gets JSON output at info
// level; every other environment gets the colored development console.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	switch env {
	case "production":
		conf := zap.NewProductionConfig()
		conf.EncoderConfig.TimeKey = "time"
		conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = conf.Build()
	case "test":
		l = zap.NewNop()
	default:
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = conf.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to build %s logger -> %w", env, err)
	}

	zap.ReplaceGlobals(l)
	return nil
}
