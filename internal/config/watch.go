package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchCredentials calls onChange with the re-read credentials each time the
// file at path is written or replaced, until ctx is done. The parent
// directory is watched so editors that save by rename are picked up.
// Read errors are logged and the previous credentials stay in effect.
func WatchCredentials(ctx context.Context, path string, logger *slog.Logger, onChange func(Credentials)) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				creds, err := ReadCredentials(abs)
				if err != nil {
					logger.Warn("credentials reload failed", "path", abs, "error", err)
					continue
				}
				logger.Info("credentials reloaded", "path", abs, "api_key_set", creds.APIKey != "")
				onChange(creds)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("credentials watcher error", "path", abs, "error", err)
			}
		}
	}()
	return nil
}
