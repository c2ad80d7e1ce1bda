package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path each time the file is written or
// replaced. Successfully loaded configs are sent on the first channel and
// load or watcher errors on the second. Both channels are closed once ctx
// is done.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temporary file over the original keep working.
func Watch(ctx context.Context, path string) (<-chan Config, <-chan error, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	configs := make(chan Config)
	errs := make(chan error)
	go func() {
		defer close(configs)
		defer close(errs)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					if !send(ctx, errs, err) {
						return
					}
					continue
				}
				if !send(ctx, configs, cfg) {
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if !send(ctx, errs, err) {
					return
				}
			}
		}
	}()
	return configs, errs, nil
}

// send delivers v unless ctx is done first.
func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
