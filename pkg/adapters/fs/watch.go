package fs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quill/pkg/core"
)

// DefaultDebounce is how long a path must stay quiet before its event is emitted.
const DefaultDebounce = 50 * time.Millisecond

// Watch emits an event for every file change under the root whose
// root-relative path matches pattern. An empty pattern matches everything.
//
// The channel is closed once ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.recursiveAdd(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 100)
	w := &watchWorker{
		repo:      r,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(DefaultDebounce),
		stop:      make(chan struct{}),
	}
	r.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(fmt.Errorf("watcher panic: %w", err))
			return
		}
		r.config.Logger.Error("watcher panic", "error", err)
	}))

	return events, nil
}

// recursiveAdd watches dir and every non-hidden directory below it.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

type watchWorker struct {
	repo      *Repository
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	stop      chan struct{}
}

func (w *watchWorker) run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
		close(w.stop)
		w.debouncer.stopAndWait()
		close(w.events)
		w.repo.setWatcherActive(false)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.process(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.repo.config.Logger.Error("watcher error", "error", err)
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(err)
			}
		}
	}
}

// process filters, maps and debounces one filesystem event.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) {
	w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	rel, ok := w.repo.relative(event.Name)
	if !ok {
		return
	}

	// New directories are watched so their files are seen too. Files written
	// before the watch was in place are reported as created.
	if event.Has(fsnotify.Create) && w.repo.isDir(event.Name) {
		if err := w.repo.recursiveAdd(w.watcher, event.Name); err != nil {
			w.repo.config.Logger.Warn("failed to watch new directory", "path", rel, "error", err)
			return
		}
		_ = filepath.WalkDir(event.Name, func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				w.process(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create})
			}
			return nil
		})
		return
	}

	entity, path, found := strings.Cut(rel, "/")
	if !found || path == "" {
		// Root-level files and entity directories themselves are not record content.
		return
	}

	if matched, _ := doublestar.Match(w.pattern, rel); !matched {
		return
	}

	eType := mapEventType(event)
	if eType == "" {
		return
	}

	e := core.Event{
		Type:      eType,
		Entity:    entity,
		Path:      path,
		Timestamp: time.Now().UnixNano(),
	}
	w.debouncer.add(rel, e, func(e core.Event) {
		w.repo.recordEvent()
		select {
		case w.events <- e:
		case <-ctx.Done():
		case <-w.stop:
		}
	})
}

// relative returns the slash separated root-relative path of name, or false
// when name is hidden, in-flight or outside the root.
func (r *Repository) relative(name string) (string, bool) {
	if isTempFile(name) {
		return "", false
	}
	rel, err := filepath.Rel(r.Path, name)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

func (r *Repository) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

type pendingEvent struct {
	event core.Event
	timer *time.Timer
}

// debouncer coalesces bursts of events on the same key into one.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

func (d *debouncer) add(key string, e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[key]; ok {
		p.event = mergeEvents(p.event, e)
		if p.timer.Stop() {
			p.timer.Reset(d.delay)
		}
		return
	}

	p := &pendingEvent{event: e}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		ev := p.event
		delete(d.pending, key)
		d.mu.Unlock()
		emit(ev)
	})
	d.pending[key] = p
}

// stopAndWait drops pending events and waits for in-flight emits to return.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// mergeEvents folds next into prev. A file created and then written is still
// a creation; a file deleted and then recreated was modified.
func mergeEvents(prev, next core.Event) core.Event {
	switch {
	case prev.Type == core.EventCreate && next.Type == core.EventModify:
		next.Type = core.EventCreate
	case prev.Type == core.EventDelete && next.Type == core.EventCreate:
		next.Type = core.EventModify
	}
	return next
}
