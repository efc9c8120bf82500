package config

import (
	"fmt"
	"path/filepath"
	"time"

	"SipSound/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watcher 监听 .env 文件变化并重新加载配置
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path. onChange receives a freshly loaded Config after
// every write; values in the file override the process environment.
// Editors often replace files instead of writing them, so the parent
// directory is watched and events are filtered by file name.
func Watch(path string, onChange func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go w.loop(abs, onChange)
	return w, nil
}

func (w *Watcher) loop(path string, onChange func(*Config)) {
	defer close(w.done)

	// 合并短时间内的多次写事件
	var debounce <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce = time.After(100 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			if err := godotenv.Overload(path); err != nil {
				logger.Warn("Failed to reload config", logger.String("path", path), logger.ErrorField(err))
				continue
			}
			onChange(fromEnv())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", logger.ErrorField(err))
		}
	}
}

// Close 停止监听
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
