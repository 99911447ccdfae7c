package app

import (
	"context"
	"strings"
	"time"

	"go.trai.ch/stitch/internal/adapters/watcher" //nolint:depguard // Debouncing for watch mode
)

// watchDebounce is the quiet period after the last change before a re-resolution starts.
var watchDebounce = watcher.DefaultDebounceWindow

// Watch resolves the entry file, then re-resolves it whenever the entry or a scaffold
// file changes, until ctx is cancelled. Output is only emitted when the result differs
// from the previous one. Resolution failures are logged and watching continues.
func (a *App) Watch(ctx context.Context, opts ResolveOptions) error {
	var last string
	if set, err := a.resolveOnce(ctx, opts); err != nil {
		a.logger.Error(err)
	} else {
		last = set.Digest()
		if err := a.emit(set, opts); err != nil {
			a.logger.Error(err)
		}
	}

	if err := a.watcher.Start(ctx, opts.watchedFiles()); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	// A pending batch already triggers a full re-read, so later batches can be dropped.
	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(watchDebounce, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})

	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("watching " + strings.Join(opts.watchedFiles(), ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info("changed: " + strings.Join(paths, ", "))

			start := time.Now()
			set, err := a.resolveOnce(ctx, opts)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Error(err)
				continue
			}

			digest := set.Digest()
			if digest == last {
				a.logger.Info("output unchanged")
				continue
			}
			last = digest

			if err := a.emit(set, opts); err != nil {
				a.logger.Error(err)
				continue
			}
			a.logger.Info("re-resolved in " + time.Since(start).Round(time.Millisecond).String())
		}
	}
}
