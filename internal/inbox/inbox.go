// Package inbox turns a local folder into a drop zone. Files that are still
// being written (browser downloads, partial copies) highlight the zone, and a
// finished file landing in the folder counts as a drop.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/logger"
)

// EventKind identifies what happened in the drop folder
type EventKind int

const (
	EventDragOver EventKind = iota
	EventDragLeave
	EventDrop
)

func (k EventKind) String() string {
	switch k {
	case EventDragOver:
		return "drag_over"
	case EventDragLeave:
		return "drag_leave"
	case EventDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Event is a drop-folder change expressed in drop-zone terms
type Event struct {
	Kind EventKind
	Name string
	Path string
	Size int64
}

// Trigger converts the event into the controller trigger it stands for
func (e Event) Trigger() controller.Trigger {
	switch e.Kind {
	case EventDragOver:
		return controller.DragOver{HasFiles: true}
	case EventDragLeave:
		return controller.DragLeave{}
	default:
		return controller.Drop{Files: []controller.SelectedFile{{Name: e.Name, Size: e.Size}}}
	}
}

// DefaultPartialSuffixes are the suffixes of files that are still being written
var DefaultPartialSuffixes = []string{".part", ".crdownload", ".tmp", ".download"}

// DefaultSettleDelay is how long a new file must stay unchanged before it
// counts as dropped
const DefaultSettleDelay = 500 * time.Millisecond

// Options configures a Watcher
type Options struct {
	PartialSuffixes []string
	SettleDelay     time.Duration
	IncludeHidden   bool
	Logger          *logger.Logger
}

// Watcher reports drop-folder events
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	suffixes []string
	settle   time.Duration
	hidden   bool
	log      *logger.Logger

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	partial map[string]struct{}
	landing map[string]*landing
}

// landing is a finished-looking file that may still be receiving bytes
type landing struct {
	path    string
	size    int64
	changed time.Time
}

// Watch starts watching dir until ctx is cancelled or Close is called
func Watch(ctx context.Context, dir string, opts Options) (*Watcher, error) {
	if err := validateDir(dir); err != nil {
		return nil, fmt.Errorf("invalid inbox directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	suffixes := opts.PartialSuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultPartialSuffixes
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	w := &Watcher{
		fs:       fsw,
		dir:      filepath.Clean(dir),
		suffixes: suffixes,
		settle:   settle,
		hidden:   opts.IncludeHidden,
		log:      log,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		partial:  make(map[string]struct{}),
		landing:  make(map[string]*landing),
	}

	w.wg.Add(1)
	go w.loop(ctx)

	log.InfoWithFields("watching drop folder", []logger.Field{logger.F("dir", w.dir)})
	return w, nil
}

// Events returns the event channel. It is closed once the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops the watcher and waits for its goroutine to exit
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.events)

	tick := time.NewTicker(max(w.settle/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if out, emit := w.translate(ev); emit {
				if !w.send(ctx, out) {
					return
				}
			}
		case now := <-tick.C:
			for _, out := range w.settled(now) {
				if !w.send(ctx, out) {
					return
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.WarnWithFields("watcher error", []logger.Field{logger.Error(err)})
		}
	}
}

func (w *Watcher) send(ctx context.Context, ev Event) bool {
	select {
	case w.events <- ev:
		w.log.DebugWithFields("inbox %s", []logger.Field{logger.File(ev.Name), logger.F("size", ev.Size)}, ev.Kind)
		return true
	case <-ctx.Done():
		return false
	case <-w.done:
		return false
	}
}

// translate maps a raw filesystem event onto at most one drag event. New
// regular files are only recorded here; settled reports them as drops.
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	name := filepath.Base(ev.Name)
	if !w.hidden && strings.HasPrefix(name, ".") {
		return Event{}, false
	}

	if w.isPartial(name) {
		switch {
		case ev.Has(fsnotify.Create):
			_, seen := w.partial[name]
			w.partial[name] = struct{}{}
			if !seen && len(w.partial) == 1 {
				return Event{Kind: EventDragOver, Name: name, Path: ev.Name}, true
			}
		case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
			if _, seen := w.partial[name]; !seen {
				return Event{}, false
			}
			delete(w.partial, name)
			if len(w.partial) == 0 {
				return Event{Kind: EventDragLeave, Name: name, Path: ev.Name}, true
			}
		}
		return Event{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			w.log.DebugWithFields("skipping vanished file", []logger.Field{logger.F("name", name), logger.Error(err)})
			return Event{}, false
		}
		if !info.Mode().IsRegular() {
			return Event{}, false
		}
		w.landing[name] = &landing{path: ev.Name, size: info.Size(), changed: time.Now()}
	case ev.Has(fsnotify.Write):
		if l, ok := w.landing[name]; ok {
			l.changed = time.Now()
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		delete(w.landing, name)
	}
	return Event{}, false
}

// settled returns a drop for every landing file that has been quiet for the
// settle delay and whose size stopped changing, in name order
func (w *Watcher) settled(now time.Time) []Event {
	var names []string
	for name, l := range w.landing {
		if now.Sub(l.changed) >= w.settle {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Event
	for _, name := range names {
		l := w.landing[name]
		info, err := os.Stat(l.path)
		if err != nil || !info.Mode().IsRegular() {
			delete(w.landing, name)
			continue
		}
		if info.Size() != l.size {
			l.size = info.Size()
			l.changed = now
			continue
		}
		delete(w.landing, name)
		out = append(out, Event{Kind: EventDrop, Name: name, Path: l.path, Size: l.size})
	}
	return out
}

func (w *Watcher) isPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range w.suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// validateDir checks that dir is a safe, existing directory
func validateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("empty directory path")
	}

	cleanPath := filepath.Clean(dir)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", cleanPath)
	}
	return nil
}
