package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounceWrite is how long RecipeWatcher waits after the last write
// event on a watched path before firing, coalescing editor save bursts.
// Variable (not const) so tests can shrink it, matching the teacher's
// debounce*Write variable pattern.
var debounceWrite = 200 * time.Millisecond

// RecipeWatcher re-signals when a watched file changes on disk, powering
// `ember converge --watch`, which watches the recipe file only.
// Adapted from the teacher's fsnotify-based config watcher: a single
// watcher goroutine reading Events/Errors into a debounced callback.
type RecipeWatcher struct {
	watcher *fsnotify.Watcher
	onChange func()
	stop    chan struct{}
	timer   *time.Timer
}

// NewRecipeWatcher watches every path in paths and calls onChange
// (debounced) whenever any of them is written.
func NewRecipeWatcher(paths []string, onChange func()) (*RecipeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	rw := &RecipeWatcher{watcher: w, onChange: onChange, stop: make(chan struct{})}
	go rw.run()
	return rw, nil
}

func (rw *RecipeWatcher) run() {
	for {
		select {
		case ev, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rw.debounced()
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config: recipe watcher error")
		case <-rw.stop:
			return
		}
	}
}

func (rw *RecipeWatcher) debounced() {
	if rw.timer != nil {
		rw.timer.Stop()
	}
	rw.timer = time.AfterFunc(debounceWrite, rw.onChange)
}

// Stop releases the underlying fsnotify watcher.
func (rw *RecipeWatcher) Stop() {
	close(rw.stop)
	rw.watcher.Close()
}
