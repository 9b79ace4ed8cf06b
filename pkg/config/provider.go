package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider watches a config file and republishes it on every change.
type FileProvider[T any] struct {
	path        string
	envPrefix   string
	logger      *slog.Logger
	mu          sync.RWMutex
	current     T
	subscribers []chan T
	watcher     *fsnotify.Watcher
	cancel      context.CancelFunc
}

// NewFileProvider creates a provider watching the specified file. The file
// must be loadable at construction time; later load failures keep the last
// good snapshot and are logged.
func NewFileProvider[T any](path, envPrefix string, logger *slog.Logger) (*FileProvider[T], error) {
	if logger == nil {
		logger = slog.Default()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &FileProvider[T]{
		path:      absPath,
		envPrefix: envPrefix,
		logger:    logger,
		watcher:   watcher,
		cancel:    cancel,
	}

	if err := p.load(); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, err
	}

	// Watch the directory rather than the file so that atomic
	// rename-replace writes keep being observed.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	go p.watchLoop(ctx)

	return p, nil
}

// Current returns the most recently loaded configuration.
func (p *FileProvider[T]) Current() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe returns a channel that receives configuration updates.
// The current state is delivered immediately.
func (p *FileProvider[T]) Subscribe() <-chan T {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan T, 1)
	p.subscribers = append(p.subscribers, ch)
	ch <- p.current
	return ch
}

// Close stops watching and closes all subscriber channels.
func (p *FileProvider[T]) Close() error {
	p.cancel()
	err := p.watcher.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
	return err
}

func (p *FileProvider[T]) load() error {
	var cfg T
	if err := LoadWithEnv(p.path, p.envPrefix, &cfg); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = cfg
	subscribers := make([]chan T, len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- cfg:
		default:
			// Drop the update for slow subscribers; they will pick up
			// the latest state via Current.
		}
	}
	return nil
}

func (p *FileProvider[T]) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Name != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.logger.Debug("Config file changed, reloading", "path", p.path)
			if err := p.load(); err != nil {
				p.logger.Error("Config reload failed, keeping previous snapshot",
					"path", p.path, "error", err)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Config watcher error", "error", err)
		}
	}
}
