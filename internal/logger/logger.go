// Package logger builds the process logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root sugared logger for the given runtime
// environment. Production gets sampled JSON at info level; any other
// environment gets colored console output with debug enabled.
func New(env string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a discard logger for tests and optional dependencies.
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
