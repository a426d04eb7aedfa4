package bnasset

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Debounce is how long Watch waits for changes to settle before rebuilding.
var Debounce = 250 * time.Millisecond

// Watch runs a build straight away and then a fresh full build each time a
// source directory changes, passing every outcome to fn. It returns when
// ctx is cancelled.
func (c *Compiler) Watch(ctx context.Context, target Target, fn func(*Report, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	var dirs []string
	if target&Images != 0 {
		dirs = append(dirs, c.cfg.ImageDir)
	}
	if target&Levels != 0 {
		dirs = append(dirs, c.cfg.MapDir)
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
		c.logger.Info("watching", "dir", dir)
	}

	fn(c.Build(ctx, target))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Editors like to leave hidden swap files around
			if strings.HasPrefix(filepath.Base(event.Name), ".") || event.Op == fsnotify.Chmod {
				continue
			}
			c.logger.Debug("source changed", "file", event.Name, "op", event.Op.String())
			pending = time.After(Debounce)
		case <-pending:
			pending = nil
			fn(c.Build(ctx, target))
		}
	}
}
