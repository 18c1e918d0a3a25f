package pcuconfig

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch reports changes to the configuration files on disk so an
// operator can be warned that a reload is needed; it never reloads or
// mutates a live catalog.Store itself (spec §4.2: configurations are
// loaded once at INIT and are otherwise immutable).
type Watch struct {
	watcher *fsnotify.Watcher
	Changed <-chan string
}

// NewWatch starts watching the given configuration file paths.
func NewWatch(paths ...string) (*Watch, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "pcuconfig: starting file watch")
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, errors.Wrapf(err, "pcuconfig: watching %s", p)
		}
	}
	changed := make(chan string, 8)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(changed)
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					changed <- ev.Name
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return &Watch{watcher: w, Changed: changed}, nil
}

// Close stops the watch.
func (w *Watch) Close() error {
	return w.watcher.Close()
}
