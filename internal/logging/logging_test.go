package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/philipparndt/takeoff/internal/config"
)

func TestNewLevels(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}

	dev, err := New(config.LogConfig{Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should default to debug")
	}

	if _, err := New(config.LogConfig{Level: "chatty"}); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
