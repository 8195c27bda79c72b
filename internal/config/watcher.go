package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch monitors the configuration file and calls onChange with the freshly
// parsed configuration whenever the file is rewritten. Parse failures are
// logged and skipped; the previous configuration stays active. Watch returns
// when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory rather than the file: editors often replace the
	// file, which drops a direct file watch.
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, errLoad := LoadConfig(path)
			if errLoad != nil {
				log.WithError(errLoad).Warn("config reload failed, keeping previous configuration")
				continue
			}
			log.WithField("path", path).Info("configuration reloaded")
			onChange(cfg)
		case errWatch, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(errWatch).Warn("config watcher error")
		}
	}
}
