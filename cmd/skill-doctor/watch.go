package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/skill-doctor/pkg/healthcheck"
	"github.com/jingkaihe/skill-doctor/pkg/logger"
	"github.com/jingkaihe/skill-doctor/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Format       string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Format:       string(healthcheck.FormatText),
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if _, err := healthcheck.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Re-run the health checks whenever skill files change",
	Long: `Run the health checks once, then watch the target directory and every
directory beneath it, running the checks again after each burst of changes.

Bursts are debounced: a new report is printed once no change has been seen
for the debounce interval.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("Cancellation requested, shutting down...")
			cancel()
		}()

		if err := runWatchMode(ctx, args[0], config, os.Stdout); err != nil {
			presenter.Error(err, "")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	addCheckFlags(watchCmd)
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchMode(ctx context.Context, target string, config *WatchConfig, w io.Writer) error {
	format, err := healthcheck.ParseFormat(config.Format)
	if err != nil {
		return err
	}

	runner, err := newRunnerFromViper()
	if err != nil {
		return err
	}

	resolved, err := runner.Resolve(target)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addWatchDirs(ctx, watcher, resolved.Root); err != nil {
		return err
	}

	check := func() {
		report, err := runner.Run(ctx, target)
		if err != nil {
			presenter.Error(err, "Health check failed")
			return
		}
		if err := healthcheck.WriteReport(w, report, format); err != nil {
			presenter.Error(err, "Failed to write report")
		}
	}

	events := make(chan FileEvent)
	batches := make(chan []FileEvent)
	go debounceFileEvents(ctx, events, batches, time.Duration(config.DebounceTime)*time.Millisecond)
	go forwardFileEvents(ctx, watcher, events)

	check()
	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", resolved.Root))

	for {
		select {
		case batch := <-batches:
			presenter.Separator()
			presenter.Section(fmt.Sprintf("Change detected: %s", describeBatch(batch)))
			logger.G(ctx).WithField("events", len(batch)).Debug("running health check after file changes")
			check()
		case <-ctx.Done():
			return nil
		}
	}
}

// forwardFileEvents turns watcher events into FileEvents, adding newly
// created directories to the watcher as it goes
func forwardFileEvents(ctx context.Context, watcher *fsnotify.Watcher, events chan<- FileEvent) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchDirs(ctx, watcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
					}
				}
			}

			select {
			case events <- FileEvent{Path: event.Name, Op: event.Op, Time: time.Now()}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("error watching files")
		case <-ctx.Done():
			return
		}
	}
}

// addWatchDirs adds root and every non-hidden directory beneath it
func addWatchDirs(ctx context.Context, watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return errors.Wrapf(watcher.Add(path), "failed to watch %s", path)
	})
}

// debounceFileEvents collects events until none has arrived for delay and
// then emits them as one batch, one event per path in arrival order
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- []FileEvent, delay time.Duration) {
	var pending []FileEvent
	index := make(map[string]int)

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-input:
			if !ok {
				return
			}
			if i, exists := index[event.Path]; exists {
				pending[i] = event
			} else {
				index[event.Path] = len(pending)
				pending = append(pending, event)
			}
			timer.Reset(delay)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = nil
			index = make(map[string]int)

			select {
			case output <- batch:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func describeBatch(batch []FileEvent) string {
	if len(batch) == 1 {
		return fmt.Sprintf("%s (%s)", batch[0].Path, batch[0].Op)
	}
	return fmt.Sprintf("%s and %d more", batch[0].Path, len(batch)-1)
}
