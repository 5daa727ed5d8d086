package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"video-vault/app/logger"
	"video-vault/app/store"

	"github.com/fsnotify/fsnotify"
)

// LibraryWatcher 下载目录监控器
//
// 监控下载目录中的删除和改名事件：当进程外有人删掉视频文件时，
// 同步移除视频库中对应的记录，保证视频库与目录实际内容一致。
type LibraryWatcher struct {
	downloadDir string
	store       *store.Store
	logger      *logger.Logger
	watcher     *fsnotify.Watcher
	done        chan struct{}
	mu          sync.Mutex
	isRunning   bool
}

// New 创建下载目录监控器
func New(downloadDir string, st *store.Store, log *logger.Logger) *LibraryWatcher {
	return &LibraryWatcher{
		downloadDir: downloadDir,
		store:       st,
		logger:      log,
	}
}

// Start 启动监控
func (w *LibraryWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.downloadDir); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.isRunning = true

	go w.watchLoop()
	w.logger.Infof("下载目录监控已启动: %s", w.downloadDir)
	return nil
}

// Stop 停止监控
func (w *LibraryWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return nil
	}

	err := w.watcher.Close()
	<-w.done
	w.isRunning = false
	w.logger.Info("下载目录监控已停止")
	return err
}

// watchLoop 事件处理循环
func (w *LibraryWatcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("下载目录监控出错: %v", err)
		}
	}
}

// handleEvent 处理单个文件系统事件
func (w *LibraryWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	name := filepath.Base(event.Name)
	if w.ignored(name) {
		return
	}

	// 只处理视频库中有记录的文件
	if !w.store.Contains(name) {
		return
	}

	if err := w.store.Remove(name); err != nil {
		w.logger.Errorf("移除失效视频记录失败: %s, 错误: %v", name, err)
		return
	}
	w.logger.Infof("文件已在进程外删除，已移除视频记录: %s", name)
}

// ignored 检查文件是否不属于视频库内容
func (w *LibraryWatcher) ignored(name string) bool {
	return name == store.FileName ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".jpg")
}
