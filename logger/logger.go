package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. Init must run before serving.
var L *zap.SugaredLogger

func Init(env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	base, err := cfg.Build()
	if err != nil {
		return err
	}
	L = base.Sugar()
	return nil
}

func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
