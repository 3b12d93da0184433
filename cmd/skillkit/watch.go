package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Debounce time.Duration
	Validation *ValidateConfig
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Debounce:   500 * time.Millisecond,
		Validation: NewValidateConfig(),
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.Debounce < 0 {
		return errors.Errorf("debounce time cannot be negative: %s", c.Debounce)
	}
	return c.Validation.Validate()
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run validation whenever a skill changes",
	Long: `Validate the skills root once, then watch it and validate again after every
burst of file changes. Validation settings are read from the validate section
of the configuration file and SKILLKIT_VALIDATE_* environment variables.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			exit(exitInvalid)
		}

		if err := runWatchMode(cmd.Context(), config, presenter.New()); err != nil {
			presenter.Error(err, "Watch failed")
			if errors.Is(err, skills.ErrRootNotFound) {
				exit(exitInvalid)
			}
			exit(exitFailed)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().DurationP("debounce", "d", defaults.Debounce, "Quiet period after the last change before validating again")
	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
}

func getWatchConfigFromFlags(_ *cobra.Command) *WatchConfig {
	config := NewWatchConfig()
	config.Debounce = viper.GetDuration("watch.debounce")
	config.Validation = getValidateConfigFromViper()
	return config
}

// runWatchMode validates once and then after every debounced change until ctx is done
func runWatchMode(ctx context.Context, config *WatchConfig, p presenter.Presenter) error {
	root := config.Validation.SkillsRoot
	discovery, err := skills.NewDiscovery(root)
	if err != nil {
		return err
	}
	if err := discovery.CheckRoot(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addWatchDirs(ctx, watcher, discovery, root); err != nil {
		return err
	}

	events := make(chan FileEvent)
	triggers := make(chan FileEvent)
	go debounceFileEvents(ctx, events, triggers, config.Debounce)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if rel, err := filepath.Rel(root, event.Name); err == nil && discovery.Ignored(filepath.ToSlash(rel)) {
					continue
				}
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addWatchDirs(ctx, watcher, discovery, event.Name); err != nil {
							logger.G(ctx).WithError(err).Warn("failed to watch new directory")
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
				logger.G(ctx).WithError(err).Error("error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	runValidate(ctx, config.Validation, os.Stdout, p)
	p.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", root))

	for {
		select {
		case event := <-triggers:
			logger.G(ctx).WithField("file", event.Path).WithField("operation", event.Op.String()).Debug("change detected")
			p.Separator()
			p.Info(fmt.Sprintf("Change detected: %s", event.Path))
			runValidate(ctx, config.Validation, os.Stdout, p)
		case <-ctx.Done():
			return nil
		}
	}
}

// addWatchDirs registers dir and every non-ignored directory below it
func addWatchDirs(ctx context.Context, watcher *fsnotify.Watcher, discovery *skills.Discovery, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(discovery.Root(), path); err == nil && rel != "." && discovery.Ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return errors.Wrapf(watcher.Add(path), "failed to watch %s", path)
	})
}

// debounceFileEvents forwards the latest event once input has been quiet for
// delay, so that a burst of changes triggers a single validation run
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	timer := time.NewTimer(delay)
	timer.Stop()

	var latest FileEvent
	pending := false
	for {
		select {
		case event, ok := <-input:
			if !ok {
				timer.Stop()
				return
			}
			latest = event
			pending = true
			timer.Reset(delay)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case output <- latest:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
