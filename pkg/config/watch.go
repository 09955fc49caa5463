package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever custody.yml inside dir is written
// or replaced, and hands every valid result to onChange. Invalid files are
// logged and skipped. Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, onChange func(*CustodyConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors usually replace the file, so watch the directory.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Join(dir, ConfigFileName)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFrom(dir)
			if err != nil {
				log.Printf("config: reload of %s failed: %v", target, err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.Printf("config: ignoring invalid %s: %v", target, err)
				continue
			}
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config: watcher error: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
