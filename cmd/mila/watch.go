package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFile runs path, then runs it again each time it is written, until
// ctx is cancelled. Bursts of events within the configured debounce
// collapse into one run.
func (c *cli) watchFile(ctx context.Context, path string) int {
	log := c.log.tagged("WATCH")

	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(c.stderr, "error: starting watcher: %v\n", err)
		return 1
	}
	defer fsWatcher.Close()

	// Watch the directory so editors that replace the file are still seen
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fmt.Fprintf(c.stderr, "error: watching %s: %v\n", path, err)
		return 1
	}
	log.logInfo("watching %s", path)

	status := c.runFile(ctx, path)

	debounce := c.cfg.Watch.Debounce
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.logInfo("stopped")
			return status

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return status
			}
			// Only handle write and create events for the watched file
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			log.logInfo("%s changed, running", path)
			status = c.runFile(ctx, path)
			log.logDebug("exit status %d", status)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return status
			}
			log.logError("watcher error: %v", err)
		}
	}
}
