package attach

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

// DefaultSettle is how long a dropped file must stay unchanged before it is picked up.
const DefaultSettle = 250 * time.Millisecond

// Selection is a file dropped into a watched directory. Exactly one of
// Blob and Err is set.
type Selection struct {
	Path string
	Blob *chat.FileBlob
	Err  error
}

// Watcher turns files dropped into a directory into selections.
type Watcher struct {
	dir    string
	settle time.Duration
	fs     *fsnotify.Watcher
	logger *zap.Logger

	out     chan Selection
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewWatcher starts watching dir. Files already present are ignored.
func NewWatcher(dir string, settle time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("attach: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("attach: watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		settle:  settle,
		fs:      fsw,
		logger:  logger,
		out:     make(chan Selection),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run()

	logger.Info("watching drop directory", zap.String("dir", dir))
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Selections delivers dropped files. It is closed when the watcher stops.
func (w *Watcher) Selections() <-chan Selection {
	return w.out
}

// Close stops the watcher and waits for it to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		<-w.stopped
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.stopped)
	defer close(w.out)

	ready := make(chan settled)
	d := newDebouncer(w.settle, func(key settled) {
		select {
		case ready <- key:
		case <-w.done:
		}
	})
	defer d.stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}

			d.touch(ev.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("drop directory watch error", zap.Error(err))

		case key := <-ready:
			if !d.take(key) {
				continue
			}
			name := key.name

			sel := Selection{Path: name}
			sel.Blob, sel.Err = Open(name)
			if sel.Err != nil {
				sel.Blob = nil
				w.logger.Warn("rejected dropped file", zap.String("path", name), zap.Error(sel.Err))
			} else {
				w.logger.Debug("accepted dropped file", zap.String("path", name), zap.String("mime_type", sel.Blob.MIMEType()))
			}

			select {
			case w.out <- sel:
			case <-w.done:
				return
			}
		}
	}
}

// settled names a path whose debounce timer fired.
type settled struct {
	name string
	gen  uint64
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// debouncer keeps at most one live timer per path. A timer that fired just
// before being superseded still calls fire, so take rejects its stale key.
// It is used from a single goroutine.
type debouncer struct {
	settle  time.Duration
	fire    func(settled)
	pending map[string]pendingTimer
	gen     uint64
}

func newDebouncer(settle time.Duration, fire func(settled)) *debouncer {
	return &debouncer{
		settle:  settle,
		fire:    fire,
		pending: make(map[string]pendingTimer),
	}
}

// touch restarts the settle period for name.
func (d *debouncer) touch(name string) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
	}
	d.gen++
	key := settled{name: name, gen: d.gen}
	d.pending[name] = pendingTimer{
		gen:   d.gen,
		timer: time.AfterFunc(d.settle, func() { d.fire(key) }),
	}
}

// take reports whether key is the live timer for its path and forgets it.
func (d *debouncer) take(key settled) bool {
	p, ok := d.pending[key.name]
	if !ok || p.gen != key.gen {
		return false
	}
	delete(d.pending, key.name)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}
