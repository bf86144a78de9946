package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level   string
	Pretty  bool
	App     string
	Env     string
	Version string
}

func New(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if config.Pretty {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level := new(zapcore.Level)
	if err := level.Set(config.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(*level)
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapConfig.Build(
		zap.Fields(
			zap.String("service", config.App),
			zap.String("env", config.Env),
			zap.String("version", config.Version),
		),
	)
}
