package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"quorum/internal/logger"
)

// ChangeListener 在配置热更新后收到新的快照。
type ChangeListener func(*Config)

// Watcher 监听主配置文件，变更时重新走完整的 Load 流程。
// include 的子文件改动不会触发（viper 只 watch 主文件），重启即可生效。
type Watcher struct {
	path string

	mu        sync.RWMutex
	current   *Config
	listeners []ChangeListener
}

// NewWatcher 加载配置并开始监听。
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, current: cfg}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := Load(w.path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.current = next
		listeners := append([]ChangeListener(nil), w.listeners...)
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", evt.Name)
		for _, fn := range listeners {
			fn(next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Current 返回当前配置。
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe 注册变更监听。
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}
