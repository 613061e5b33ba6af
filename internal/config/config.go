/**
 * NeoProbe 配置管理
 * @description: 配置结构定义与校验，由 ConfigLoader 加载。
 */

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config NeoProbe 配置
type Config struct {
	// 应用配置
	App *AppConfig `yaml:"app" mapstructure:"app"`

	// 日志配置
	Log *LogConfig `yaml:"log" mapstructure:"log"`

	// 探测配置
	Probe *ProbeConfig `yaml:"probe" mapstructure:"probe"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 调试模式
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// ProbeConfig 探测配置
type ProbeConfig struct {
	TimeoutMs     int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`           // 限时模式下单次探测超时（毫秒）
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`         // 限时模式下并发探测数上限
	PingTimeoutMs int    `yaml:"ping_timeout_ms" mapstructure:"ping_timeout_ms"` // ICMP 探测超时（毫秒）
	Proxy         string `yaml:"proxy" mapstructure:"proxy"`                     // SOCKS5 代理地址 (可选)
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.Probe != nil {
		if c.Probe.TimeoutMs <= 0 {
			return fmt.Errorf("probe.timeout_ms must be positive, got %d", c.Probe.TimeoutMs)
		}
		if c.Probe.Concurrency <= 0 {
			return fmt.Errorf("probe.concurrency must be positive, got %d", c.Probe.Concurrency)
		}
	}
	return nil
}

// Dump 以 YAML 形式输出当前配置 (调试用)
func (c *Config) Dump() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("failed to dump config: %v", err)
	}
	return string(data)
}
