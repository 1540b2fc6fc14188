package knowledge

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

/*
Watcher monitors the knowledge file and triggers a rebuild when it
changes. Editors tend to fire several events per save, so rebuilds are
debounced; the rebuild callback is expected to end in an index Swap so
readers are never disturbed.
*/
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	rebuild  func(ctx context.Context) error
}

func NewWatcher(path string, rebuild func(ctx context.Context) error) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		debounce: 500 * time.Millisecond,
		rebuild:  rebuild,
	}, nil
}

/*
Watch starts monitoring and returns immediately. Watching the parent
directory instead of the file itself survives the rename-and-replace
dance most editors do on save.
*/
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go func() {
		var timer *time.Timer

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != w.path {
					continue
				}

				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if timer != nil {
					timer.Stop()
				}

				timer = time.AfterFunc(w.debounce, func() {
					log.Info("knowledge file changed, rebuilding index", "path", w.path)

					if err := w.rebuild(ctx); err != nil {
						log.Error("knowledge rebuild failed", "path", w.path, "error", err)
					}
				})

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}

				log.Error("knowledge watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
