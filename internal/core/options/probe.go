package options

import (
	"fmt"
	"time"

	"neoprobe/internal/core/model"
	"neoprobe/internal/core/runner"
)

// ProbeOptions probe run 命令的参数
type ProbeOptions struct {
	Targets            []string // 目标列表 (主机名或 IP)
	TargetFile         string   // 目标文件，一行一个
	Ports              []int    // 端口列表 (1-65535)
	TimeoutMs          int      // 限时模式下单次探测超时（毫秒）
	Unbounded          bool     // 禁用单次探测超时，使用系统默认连接超时
	Resolve            bool     // 启用名称/地址解析
	SkipPing           bool     // 跳过 Ping 门禁
	ContinueOnPingFail bool     // Ping 无响应时仍探测端口
	Quiet              bool     // 不输出控制台表格
	Concurrency        int      // 并发探测数上限
	PingTimeoutMs      int      // ICMP 探测超时（毫秒）
	Proxy              string   // SOCKS5 代理地址
	OutputCsv          string   // CSV 输出路径

	// WatchConfig 长批次运行时监听配置文件热更新日志级别
	WatchConfig bool
}

func NewProbeOptions() *ProbeOptions {
	return &ProbeOptions{
		TimeoutMs:     3000,
		Concurrency:   runner.DefaultConcurrency,
		PingTimeoutMs: 1000,
	}
}

// Validate 验证参数合法性
// 结构性错误 (空目标、非法端口) 是致命的，必须在运行前暴露
func (o *ProbeOptions) Validate() error {
	if len(o.Targets) == 0 && o.TargetFile == "" {
		return fmt.Errorf("at least one target is required (use -t or --target-file)")
	}
	if len(o.Ports) == 0 {
		return fmt.Errorf("port list is required")
	}
	if _, err := model.NormalizePorts(o.Ports); err != nil {
		return err
	}
	if !o.Unbounded && o.TimeoutMs <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", o.TimeoutMs)
	}
	if o.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	return nil
}

// BuildTargets 合并命令行目标与目标文件内容 (保持出现顺序)
func (o *ProbeOptions) BuildTargets() ([]string, error) {
	targets := append([]string{}, o.Targets...)
	if o.TargetFile != "" {
		fromFile, err := model.LoadTargetFile(o.TargetFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}
	return targets, nil
}

// RunnerOptions 转换为调度器参数
func (o *ProbeOptions) RunnerOptions() runner.Options {
	return runner.Options{
		Bounded:            !o.Unbounded,
		Timeout:            time.Duration(o.TimeoutMs) * time.Millisecond,
		Resolve:            o.Resolve,
		SkipPing:           o.SkipPing,
		ContinueOnPingFail: o.ContinueOnPingFail,
		Concurrency:        o.Concurrency,
		PingTimeout:        time.Duration(o.PingTimeoutMs) * time.Millisecond,
	}
}
