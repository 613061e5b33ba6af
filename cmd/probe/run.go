/*
 * @description: probe run 子命令 (一次完整的探测运行)
 */

package main

import (
	"context"
	"fmt"
	"time"

	"neoprobe/internal/config"
	"neoprobe/internal/core/aggregator"
	"neoprobe/internal/core/lib/network/dialer"
	"neoprobe/internal/core/options"
	"neoprobe/internal/core/reporter"
	"neoprobe/internal/core/runner"
	"neoprobe/internal/pkg/logger"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewRunCmd 创建 run 命令
func NewRunCmd() *cobra.Command {
	opts := options.NewProbeOptions()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行一次端口可达性探测",
		Long: `对目标列表逐个执行: Ping 门禁 -> 可选解析 -> 逐端口 TCP Connect 探测，
输出按主机排序的结果表格。默认限时模式 (单次探测 3000ms 超时)，
--unbounded 切换为系统默认连接超时的顺序探测。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, opts)

			if err := opts.Validate(); err != nil {
				return err
			}
			return runProbe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.Targets, "target", "t", opts.Targets, "探测目标，可逗号分隔或多次指定")
	flags.StringVar(&opts.TargetFile, "target-file", "", "目标文件，一行一个，# 为注释")
	flags.IntSliceVarP(&opts.Ports, "port", "p", opts.Ports, "端口列表 (1-65535)，可逗号分隔")
	flags.IntVar(&opts.TimeoutMs, "timeout", opts.TimeoutMs, "限时模式下单次探测超时（毫秒）")
	flags.BoolVar(&opts.Unbounded, "unbounded", opts.Unbounded, "禁用单次探测超时，顺序探测")
	flags.BoolVarP(&opts.Resolve, "resolve", "r", opts.Resolve, "启用名称/地址解析 (IP/DNS 列)")
	flags.BoolVar(&opts.SkipPing, "skip-ping", opts.SkipPing, "跳过 Ping 门禁")
	flags.BoolVar(&opts.ContinueOnPingFail, "continue-on-ping-fail", opts.ContinueOnPingFail, "Ping 无响应时仍探测端口")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", opts.Quiet, "不输出控制台表格")
	flags.IntVarP(&opts.Concurrency, "concurrency", "c", opts.Concurrency, "并发探测数上限 (限时模式)")
	flags.StringVar(&opts.Proxy, "proxy", "", "SOCKS5 代理地址 (socks5://host:port)")
	flags.BoolVar(&opts.WatchConfig, "watch-config", false, "监听配置文件变化，热更新日志级别")

	flags.StringVar(&opts.OutputCsv, "outputCsv", "", "指定保存csv文件路径[以.csv结尾] (alias: --oc)")
	flags.StringVar(&opts.OutputCsv, "oc", "", "outputCsv 简写")
	flags.Lookup("oc").Hidden = true

	return cmd
}

// applyConfigDefaults 将配置文件中的探测默认值应用到未显式指定的 flag
// --config 指定了配置文件时在其所在目录查找，与 --watch-config 行为一致
func applyConfigDefaults(cmd *cobra.Command, opts *options.ProbeOptions) {
	cfg, err := newConfigLoader().LoadConfig()
	if err != nil || cfg.Probe == nil {
		return
	}

	flags := cmd.Flags()
	if !flags.Changed("timeout") {
		opts.TimeoutMs = cfg.Probe.TimeoutMs
	}
	if !flags.Changed("concurrency") {
		opts.Concurrency = cfg.Probe.Concurrency
	}
	if cfg.Probe.PingTimeoutMs > 0 {
		opts.PingTimeoutMs = cfg.Probe.PingTimeoutMs
	}
	if opts.Proxy == "" {
		opts.Proxy = cfg.Probe.Proxy
	}
}

// runProbe 执行探测并输出结果
func runProbe(ctx context.Context, opts *options.ProbeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 配置了代理时替换全局拨号器
	if opts.Proxy != "" {
		pd, err := dialer.NewProxyDialer(opts.Proxy)
		if err != nil {
			return err
		}
		dialer.SetGlobalDialer(pd)
	}

	// 长批次运行时可热更新日志级别
	if opts.WatchConfig {
		watcher, err := config.WatchConfig(cfgFile, func(oldCfg, newCfg *config.Config) error {
			if logger.LoggerInstance != nil && newCfg.Log != nil {
				return logger.LoggerInstance.UpdateConfig(newCfg.Log)
			}
			return nil
		})
		if err != nil {
			logger.Warnf("config watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
			if cfg := watcher.GetConfig(); cfg != nil {
				logger.Debugf("config watcher started, active config:\n%s", cfg.Dump())
			}
		}
	}

	targets, err := opts.BuildTargets()
	if err != nil {
		return err
	}

	agg := aggregator.New()
	r := runner.New(opts.RunnerOptions(), agg)

	if !opts.Quiet {
		fmt.Printf("[*] Probing %d target(s) on %d port(s)...\n", len(targets), len(opts.Ports))
	}

	start := time.Now()
	if _, err := r.Run(ctx, targets, opts.Ports); err != nil {
		return err
	}
	elapsed := time.Since(start)

	// 通过 last-report 缓存取回报告，形状与运行结果完全一致
	report, err := agg.LastReport()
	if err != nil {
		return err
	}

	// 组合输出端: 控制台表格 (非 quiet) + CSV 文件 (指定了 --outputCsv)
	var outputs []reporter.Reporter
	if !opts.Quiet {
		outputs = append(outputs, reporter.NewConsoleReporter())
	}
	if opts.OutputCsv != "" {
		outputs = append(outputs, reporter.NewCsvReporter(opts.OutputCsv))
	}
	if len(outputs) > 0 {
		if err := reporter.NewMultiReporter(outputs...).Report(ctx, report); err != nil {
			return err
		}
	}

	if !opts.Quiet {
		pterm.Success.Printfln("%d host(s), %d open port(s), finished in %s",
			len(report.Records), report.OpenCount(), elapsed.Round(time.Millisecond))
		if opts.OutputCsv != "" {
			fmt.Printf("[+] Results saved to %s\n", opts.OutputCsv)
		}
	}

	logger.Infof("probe run %s completed: hosts=%d open=%d elapsed=%s",
		report.RunID, len(report.Records), report.OpenCount(), elapsed.Round(time.Millisecond))

	return nil
}
