package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher 配置文件监听器
// 使用 fsnotify 监听配置文件变化并重新加载，通过回调通知变更。
// 主要用途是长批次运行中热调整日志级别，无需重启。
type ConfigWatcher struct {
	configPath  string
	config      *Config
	loader      *ConfigLoader
	watcher     *fsnotify.Watcher
	callbacks   []ConfigChangeCallback
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	reloadDelay time.Duration
	lastReload  time.Time
}

// ConfigChangeCallback 配置变更回调函数
type ConfigChangeCallback func(oldConfig, newConfig *Config) error

// NewConfigWatcher 创建配置监听器
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ConfigWatcher{
		configPath:  configPath,
		loader:      NewConfigLoader(filepath.Dir(configPath), "NEOPROBE"),
		watcher:     watcher,
		ctx:         ctx,
		cancel:      cancel,
		reloadDelay: 1 * time.Second, // 防抖延迟
	}, nil
}

// AddCallback 添加配置变更回调
func (cw *ConfigWatcher) AddCallback(callback ConfigChangeCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Start 启动配置监听
func (cw *ConfigWatcher) Start() error {
	config, err := cw.loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	cw.mu.Lock()
	cw.config = config
	cw.mu.Unlock()

	configFile := cw.loader.GetConfigPath()
	if configFile == "" {
		configFile = cw.configPath
	}
	if err := cw.watcher.Add(configFile); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", configFile, err)
	}

	go cw.watchLoop()
	return nil
}

// Stop 停止配置监听
func (cw *ConfigWatcher) Stop() error {
	cw.cancel()
	return cw.watcher.Close()
}

// GetConfig 获取当前配置
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.config
}

// watchLoop 监听循环
func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFileEvent(event)
		case _, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// handleFileEvent 处理文件事件，只响应写入和创建，带防抖
func (cw *ConfigWatcher) handleFileEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
		now := time.Now()
		if now.Sub(cw.lastReload) < cw.reloadDelay {
			return
		}
		cw.lastReload = now

		// 延迟重载，确保文件写入完成
		time.AfterFunc(cw.reloadDelay, func() {
			cw.reloadConfig()
		})
	}
}

// reloadConfig 重新加载配置并触发回调
func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := cw.loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	cw.mu.RLock()
	oldConfig := cw.config
	callbacks := cw.callbacks
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			return fmt.Errorf("config change callback failed: %w", err)
		}
	}

	cw.mu.Lock()
	cw.config = newConfig
	cw.mu.Unlock()
	return nil
}

// WatchConfig 监听配置变更（便捷函数）
func WatchConfig(configPath string, callback ConfigChangeCallback) (*ConfigWatcher, error) {
	watcher, err := NewConfigWatcher(configPath)
	if err != nil {
		return nil, err
	}

	if callback != nil {
		watcher.AddCallback(callback)
	}

	if err := watcher.Start(); err != nil {
		return nil, err
	}
	return watcher, nil
}
