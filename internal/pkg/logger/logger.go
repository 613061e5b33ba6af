// 日志管理器
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"neoprobe/internal/config"
)

// LoggerManager 日志管理器
type LoggerManager struct {
	logger *logrus.Logger
	config *config.LogConfig
}

// LoggerInstance 全局日志实例
var LoggerInstance *LoggerManager

// InitLogger 初始化日志管理器
// 根据配置初始化 logrus 实例，支持多种输出方式和格式
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("Invalid log level '%s', using 'info' as default", cfg.Level)
	}
	logger.SetLevel(level)

	if err := setLogFormatter(logger, cfg); err != nil {
		return nil, fmt.Errorf("failed to set log formatter: %w", err)
	}

	if err := setLogOutput(logger, cfg); err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}

	logger.SetReportCaller(cfg.Caller)

	lm := &LoggerManager{
		logger: logger,
		config: cfg,
	}
	LoggerInstance = lm
	return lm, nil
}

// setLogFormatter 设置日志格式化器
func setLogFormatter(logger *logrus.Logger, cfg *config.LogConfig) error {
	// 毫秒精度时间戳，不显示时区
	timestampFormat := "2006-01-02 15:04:05.000"

	switch strings.ToLower(cfg.Format) {
	case "json":
		// JSON 格式化器，适合生产环境和日志分析
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		// 文本格式化器，适合开发环境和控制台输出
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
			ForceColors:     true,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return nil
}

// setLogOutput 设置日志输出目标
func setLogOutput(logger *logrus.Logger, cfg *config.LogConfig) error {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "file":
		// 输出到文件，使用 lumberjack 进行日志轮转
		if cfg.FilePath == "" {
			return fmt.Errorf("file path is required when output is file")
		}

		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		// debug 级别时同时输出到控制台，便于排查
		if cfg.Level == "debug" {
			logger.SetOutput(io.MultiWriter(os.Stdout, lumberjackLogger))
		} else {
			logger.SetOutput(lumberjackLogger)
		}
	default:
		return fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
	return nil
}

// GetLogger 获取 logrus 实例
func (lm *LoggerManager) GetLogger() *logrus.Logger {
	return lm.logger
}

// UpdateConfig 运行时动态更新日志配置 (配置热重载时使用)
func (lm *LoggerManager) UpdateConfig(newCfg *config.LogConfig) error {
	if newCfg == nil {
		return fmt.Errorf("new config cannot be nil")
	}

	if newCfg.Level != lm.config.Level {
		level, err := logrus.ParseLevel(newCfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		lm.logger.SetLevel(level)
		lm.logger.Infof("Log level updated from %s to %s", lm.config.Level, newCfg.Level)
	}

	if newCfg.Format != lm.config.Format {
		if err := setLogFormatter(lm.logger, newCfg); err != nil {
			return fmt.Errorf("failed to update log formatter: %w", err)
		}
	}

	if newCfg.Output != lm.config.Output || newCfg.FilePath != lm.config.FilePath {
		if err := setLogOutput(lm.logger, newCfg); err != nil {
			return fmt.Errorf("failed to update log output: %w", err)
		}
	}

	lm.config = newCfg
	return nil
}

// 便捷方法：使用全局日志实例

func Debug(args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Debugf(format, args...)
	}
}

func Info(args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Infof(format, args...)
	}
}

func Warn(args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Warnf(format, args...)
	}
}

func Error(args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Errorf(format, args...)
	}
}

// WithFields 添加结构化字段
func WithFields(fields logrus.Fields) *logrus.Entry {
	if LoggerInstance != nil {
		return LoggerInstance.logger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
