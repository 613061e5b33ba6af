package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configPath string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = "NEOPROBE"
	}

	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 配置文件 > 默认值
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件
// 配置文件缺失不是错误，全部使用默认值即可
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		if envPath := os.Getenv("NEOPROBE_CONFIG_PATH"); envPath != "" {
			cl.configPath = envPath
		} else {
			cl.configPath = "./configs"
		}
	}

	cl.viper.AddConfigPath(cl.configPath)
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")
	cl.viper.SetConfigName("config")

	if err := cl.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "neoprobe")
	cl.viper.SetDefault("app.environment", "production")
	cl.viper.SetDefault("app.debug", false)

	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 3)
	cl.viper.SetDefault("log.max_age", 7)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", false)

	cl.viper.SetDefault("probe.timeout_ms", 3000)
	cl.viper.SetDefault("probe.concurrency", 100)
	cl.viper.SetDefault("probe.ping_timeout_ms", 1000)
}

// GetConfigPath 返回实际使用的配置文件路径 (供 watcher 使用)
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}
