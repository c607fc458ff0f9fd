// Package logging builds the structured zap logger used across every
// component, replacing the teacher's raw log.Printf/log.Fatalf calls.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger, switching to a more readable console
// encoder when LOG_FORMAT=console (useful for local development).
func New() (*zap.Logger, error) {
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Must is New but panics on error, for use in places that cannot propagate one.
func Must() *zap.Logger {
	l, err := New()
	if err != nil {
		panic(err)
	}
	return l
}
