package depthcloud

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher calls onChange when one of the watched files is written or
// recreated. It watches the parent directories, since editors often
// replace a file instead of writing it in place.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   Logger
	onChange func(path string)

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

func newFileWatcher(logger Logger, onChange func(path string)) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &fileWatcher{
		watcher:  w,
		logger:   logger,
		onChange: onChange,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	fw.wg.Add(1)
	go fw.run()
	return fw, nil
}

// Watch replaces the watched set with paths. Empty paths are skipped. On
// error the previous set stays in effect.
func (fw *fileWatcher) Watch(paths ...string) error {
	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	var added []string
	for dir := range dirs {
		if _, ok := fw.dirs[dir]; ok {
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			for _, a := range added {
				_ = fw.watcher.Remove(a)
			}
			return err
		}
		added = append(added, dir)
	}
	for dir := range fw.dirs {
		if _, ok := dirs[dir]; !ok {
			_ = fw.watcher.Remove(dir)
		}
	}
	fw.files, fw.dirs = files, dirs
	return nil
}

func (fw *fileWatcher) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.files[abs]
	return ok
}

func (fw *fileWatcher) run() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.matches(event) {
				fw.logger.Debugf("watch: %s %s", event.Op, event.Name)
				fw.onChange(event.Name)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warnf("watch: %v", err)
		}
	}
}

func (fw *fileWatcher) Close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}
