package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheEntropyCollective/contenthash/pkg/watch"
)

// runWatch hashes the named files, then re-hashes and reprints each one
// whenever it changes. Runs until interrupted.
func runWatch(opts *options, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Watch mode requires at least one file")
		return exitUsage
	}

	watcher, err := watch.NewWatcher(opts.cfg.Watch.Debounce())
	if err != nil {
		reportFailure(opts, err)
		return exitFailure
	}
	defer watcher.Stop()

	for _, name := range args {
		if err := watcher.AddFile(name); err != nil {
			reportFailure(opts, err)
			return exitUsage
		}
	}

	// Baseline pass so every change is reported against a printed digest
	for _, name := range args {
		rehash(opts, name)
	}

	opts.logger.Info("Watching files", map[string]interface{}{
		"files":       len(args),
		"debounce_ms": opts.cfg.Watch.DebounceMS,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return exitOK
			}
			opts.logger.Debug("File changed", map[string]interface{}{
				"path": event.Path,
				"op":   event.Op.String(),
			})
			rehash(opts, event.Path)

		case err, ok := <-watcher.Errors():
			if !ok {
				return exitOK
			}
			opts.logger.Warn("Watcher error", map[string]interface{}{
				"error": err.Error(),
			})

		case <-sigChan:
			opts.logger.Info("Stopping watch mode")
			return exitOK
		}
	}
}

// rehash hashes one file and prints the result, reporting failures
// without ending the watch. Files may vanish between the event and the
// read; that surfaces here as an open error and the watch continues.
func rehash(opts *options, name string) {
	result, err := hashInput(opts, name, nil, false)
	if err != nil {
		reportFailure(opts, err)
		return
	}
	printResult(opts, result)
}
