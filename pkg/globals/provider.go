package globals

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 100 * time.Millisecond

// FileProvider watches a globals file and republishes the tree whenever an
// operator edits it. Lifecycle orchestration subscribes and re-resolves the
// per-role SSL parameters on each update.
type FileProvider struct {
	path    string
	logger  zerolog.Logger
	metrics *Metrics

	mu          sync.RWMutex
	current     Globals
	subscribers []chan Globals
	closed      bool

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewFileProvider creates a provider watching the specified globals file.
// The file must parse at startup; a test run with an unreadable globals
// tree should not get as far as starting services.
func NewFileProvider(path string, logger zerolog.Logger) (*FileProvider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &FileProvider{
		path:    absPath,
		logger:  logger,
		metrics: NewMetrics(),
		watcher: watcher,
		cancel:  cancel,
	}

	if err := p.load(); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("initial globals load: %w", err)
	}

	// Watch the directory, not the file: editors and config management
	// tools replace the file rather than writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	go p.watchLoop(ctx)

	return p, nil
}

// Current returns the most recently loaded globals tree.
func (p *FileProvider) Current() Globals {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe returns a channel that receives the globals tree immediately
// and again after every successful reload. The channel is closed when the
// provider shuts down, so consumers may range over it.
func (p *FileProvider) Subscribe() <-chan Globals {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Globals, 1)
	if p.closed {
		close(ch)
		return ch
	}
	p.subscribers = append(p.subscribers, ch)
	ch <- p.current
	return ch
}

// Metrics exposes the reload counters for scraping.
func (p *FileProvider) Metrics() *Metrics {
	return p.metrics
}

// Close stops the watcher and closes all subscriber channels.
func (p *FileProvider) Close() error {
	p.cancel()

	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, ch := range p.subscribers {
			close(ch)
		}
		p.subscribers = nil
	}
	p.mu.Unlock()

	return p.watcher.Close()
}

func (p *FileProvider) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != p.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(reloadDebounce, func() {
					if err := p.load(); err != nil {
						p.metrics.RecordReload(false)
						p.logger.Error().Err(err).Str("path", p.path).Msg("globals reload failed")
					} else {
						p.metrics.RecordReload(true)
						p.logger.Info().Str("path", p.path).Msg("globals reloaded")
					}
				})
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error().Err(err).Msg("globals watcher error")
		}
	}
}

func (p *FileProvider) load() error {
	g, err := Load(p.path)
	if err != nil {
		return err
	}

	// Notify under the lock: sends are non-blocking, and a debounced
	// reload racing Close must never hit a closed channel.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.current = g

	for _, ch := range p.subscribers {
		select {
		case ch <- g:
		default:
			// Skip if channel is full (slow consumer)
		}
	}

	return nil
}
