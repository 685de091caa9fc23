package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/logger"
)

func startWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	return startWatcherWith(t, Options{SettleDelay: 100 * time.Millisecond})
}

func startWatcherWith(t *testing.T, opts Options) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := Watch(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, dir
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for inbox event")
	}
	return Event{}
}

func TestWatchPartialThenFinishedDownload(t *testing.T) {
	w, dir := startWatcher(t)

	partial := filepath.Join(dir, "report.pdf.crdownload")
	if err := os.WriteFile(partial, []byte("0123456789"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, w)
	if ev.Kind != EventDragOver {
		t.Fatalf("expected drag over for partial file, got %s", ev.Kind)
	}

	final := filepath.Join(dir, "report.pdf")
	if err := os.Rename(partial, final); err != nil {
		t.Fatal(err)
	}

	ev = nextEvent(t, w)
	if ev.Kind != EventDragLeave {
		t.Fatalf("expected drag leave once the partial file is gone, got %s", ev.Kind)
	}

	ev = nextEvent(t, w)
	if ev.Kind != EventDrop || ev.Name != "report.pdf" || ev.Size != 10 {
		t.Fatalf("unexpected drop event: %+v", ev)
	}
}

func TestWatchIgnoresHiddenFilesAndDirectories(t *testing.T) {
	w, dir := startWatcher(t)

	if err := os.WriteFile(filepath.Join(dir, ".DS_Store"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "visible.csv"), []byte("a,b"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, w)
	if ev.Kind != EventDrop || ev.Name != "visible.csv" {
		t.Fatalf("expected only the visible file to be reported, got %+v", ev)
	}
}

func TestWatchRejectsBadDirectories(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		dir  string
	}{
		{"empty", "  "},
		{"traversal", "../outside"},
		{"missing", filepath.Join(t.TempDir(), "missing")},
		{"not a directory", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Watch(context.Background(), tt.dir, Options{}); err == nil {
				t.Errorf("expected error for %q", tt.dir)
			}
		})
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	cancel()
	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatal("expected channel to close without events")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestTranslateTracksOverlappingPartials(t *testing.T) {
	w := &Watcher{
		suffixes: DefaultPartialSuffixes,
		partial:  make(map[string]struct{}),
		landing:  make(map[string]*landing),
		log:      logger.Nop(),
	}

	steps := []struct {
		op   fsnotify.Op
		name string
		emit bool
		kind EventKind
	}{
		{fsnotify.Create, "/in/a.part", true, EventDragOver},
		{fsnotify.Create, "/in/b.tmp", false, 0},
		{fsnotify.Remove, "/in/a.part", false, 0},
		{fsnotify.Rename, "/in/b.tmp", true, EventDragLeave},
		{fsnotify.Remove, "/in/never-seen.part", false, 0},
		{fsnotify.Write, "/in/c.download", false, 0},
	}

	for i, step := range steps {
		ev, emit := w.translate(fsnotify.Event{Name: step.name, Op: step.op})
		if emit != step.emit {
			t.Fatalf("step %d (%s %s): emit=%v, want %v", i, step.op, step.name, emit, step.emit)
		}
		if emit && ev.Kind != step.kind {
			t.Fatalf("step %d: kind=%s, want %s", i, ev.Kind, step.kind)
		}
	}
}

func TestWatchWaitsForCopyToFinish(t *testing.T) {
	w, dir := startWatcherWith(t, Options{SettleDelay: 200 * time.Millisecond})

	path := filepath.Join(dir, "report.pdf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := f.Write(make([]byte, 2_400_000)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, w)
	if ev.Kind != EventDrop || ev.Name != "report.pdf" || ev.Size != 2_400_000 {
		t.Fatalf("expected the drop to carry the copied size, got %+v", ev)
	}
}

func TestSettledWaitsForStableSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, make([]byte, 10), 0o600); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	w := &Watcher{settle: time.Second, landing: map[string]*landing{
		"data.csv": {path: path, size: 0, changed: start},
		"gone.csv": {path: filepath.Join(dir, "gone.csv"), changed: start},
	}}

	if got := w.settled(start.Add(500 * time.Millisecond)); len(got) != 0 {
		t.Fatalf("nothing should settle before the delay, got %+v", got)
	}

	// the size grew since the file was created, so the clock restarts
	if got := w.settled(start.Add(time.Second)); len(got) != 0 {
		t.Fatalf("a file that is still growing must not settle, got %+v", got)
	}
	if _, ok := w.landing["gone.csv"]; ok {
		t.Error("a vanished file should be forgotten")
	}

	got := w.settled(start.Add(2 * time.Second))
	if len(got) != 1 || got[0].Kind != EventDrop || got[0].Size != 10 {
		t.Fatalf("expected one drop with the final size, got %+v", got)
	}
	if len(w.landing) != 0 {
		t.Errorf("settled files should be forgotten, %d left", len(w.landing))
	}
}

func TestTranslateForgetsRemovedLandingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	w := &Watcher{suffixes: DefaultPartialSuffixes, partial: make(map[string]struct{}), landing: make(map[string]*landing), log: logger.Nop()}

	if _, emit := w.translate(fsnotify.Event{Name: path, Op: fsnotify.Create}); emit {
		t.Fatal("a new file must not be reported before it settles")
	}
	if _, ok := w.landing["a.csv"]; !ok {
		t.Fatal("new file should be tracked")
	}
	w.translate(fsnotify.Event{Name: path, Op: fsnotify.Remove})
	if len(w.landing) != 0 {
		t.Error("removed file should no longer be tracked")
	}
}

func TestEventTrigger(t *testing.T) {
	if _, ok := (Event{Kind: EventDragOver}).Trigger().(controller.DragOver); !ok {
		t.Error("drag over should map to controller.DragOver")
	}
	if _, ok := (Event{Kind: EventDragLeave}).Trigger().(controller.DragLeave); !ok {
		t.Error("drag leave should map to controller.DragLeave")
	}

	drop, ok := (Event{Kind: EventDrop, Name: "a.csv", Size: 7}).Trigger().(controller.Drop)
	if !ok || len(drop.Files) != 1 || drop.Files[0].Name != "a.csv" || drop.Files[0].Size != 7 {
		t.Fatalf("unexpected drop trigger: %+v", drop)
	}
}
