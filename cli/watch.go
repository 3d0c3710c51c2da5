package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// watch evaluates once, then again every time an XML file in the scene or grasp directory
// changes, until ctx is done. Each evaluation starts from freshly loaded files.
func (r *runner) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			r.logger.Warnw("closing file watcher", "error", cerr)
		}
	}()
	dirs, err := r.watchDirs()
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return errors.Wrapf(err, "watching %s", d)
		}
		r.logger.Infof("watching %s", d)
	}

	changes := make(chan string, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(ev.Name), ".xml") || ev.Op == fsnotify.Chmod {
					continue
				}
				select {
				case changes <- ev.Name:
				default:
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warnw("file watcher", "error", werr)
			}
		}
	}()

	for {
		ev, err := r.evaluate(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			r.logger.Errorw("evaluation failed, waiting for changes", "error", err)
		default:
			if serr := r.show(ctx, ev.acc.Arena(), false); serr != nil {
				r.logger.Warnw("could not update the viewer", "error", serr)
			}
		}
		if r.onEvaluated != nil {
			r.onEvaluated(ev, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case name := <-changes:
			r.logger.Infof("%s changed, evaluating again", name)
		}
	}
}

// watchDirs returns the directories of the scene file and the grasp files.
func (r *runner) watchDirs() ([]string, error) {
	paths := r.dataPaths()
	scenePath, serr := paths.Resolve(r.cfg.Scene)
	graspDir, gerr := paths.Resolve(r.cfg.Grasps)
	if err := multierr.Combine(serr, gerr); err != nil {
		return nil, err
	}
	dirs := []string{filepath.Dir(scenePath)}
	if graspDir != dirs[0] {
		dirs = append(dirs, graspDir)
	}
	return dirs, nil
}
