package driver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch recompiles whenever a watched source changes. Events are
// debounced so editors that write in bursts trigger one rebuild.
func (c *Compiler) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	paths, err := c.expandIncludes()
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}

	if err := c.Run(ctx); err != nil {
		c.log.Error("initial build failed", "err", err)
	}

	const debounce = 100 * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".ts" {
				continue
			}
			c.log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if dirty && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			dirty = true
		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := c.Run(ctx); err != nil {
				c.log.Error("rebuild failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Error("watch error", "err", err)
		}
	}
}
