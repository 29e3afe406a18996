// ABOUTME: Watches the config file and reloads it on change
// ABOUTME: Built on fsnotify; a failed reload keeps the previous config

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it changes and passes the result to onChange.
// Reload failures go to onError and keep the previous config in effect.
func Watch(ctx context.Context, path string, onChange func(*Config), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err == nil {
					err = cfg.ValidateStore()
				}
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()

	return nil
}
