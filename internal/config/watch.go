package config

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/pkg/watcher"
)

// Watch reloads path whenever it changes and hands valid configurations to
// apply. Invalid files are logged and skipped. It blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *zap.Logger, apply func(Config)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := watcher.New(200*time.Millisecond, logger)
	if err != nil {
		return err
	}
	err = w.Add(path, func(string) {
		cfg, err := Load(path)
		if err != nil {
			logger.Warn("ignoring config change", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("path", path))
		apply(cfg)
	})
	if err != nil {
		w.Close()
		return err
	}
	return w.Run(ctx)
}
