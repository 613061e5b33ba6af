/**
 * 探测调度器
 * @description: 在 host×port 矩阵上调度探测：Ping 门禁 -> 可选解析 -> 逐端口探测，
 *               结果汇入聚合器。探测失败永远不会中断批次。
 */

package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"neoprobe/internal/core/aggregator"
	"neoprobe/internal/core/model"
	"neoprobe/internal/core/scanner/alive"
	"neoprobe/internal/core/scanner/probe"
	"neoprobe/internal/pkg/logger"
)

const DefaultConcurrency = 100

// PortProber 端口探测接口 (测试时可替换)
type PortProber interface {
	Probe(ctx context.Context, target string, port int) model.ProbeOutcome
}

// Options 一次探测运行的参数
type Options struct {
	Bounded            bool          // 限时模式
	Timeout            time.Duration // 单次探测超时 (仅限时模式)
	Resolve            bool          // 启用名称/地址解析
	SkipPing           bool          // 跳过 Ping 门禁
	ContinueOnPingFail bool          // Ping 无响应时仍探测端口
	Concurrency        int           // 限时模式下并发探测数上限
	PingTimeout        time.Duration // ICMP 探测超时
}

// Runner 驱动一次完整的探测运行
// 每个 Target 是一条顺序流水线: Init -> (PingCheck) -> [全部跳过 | 解析 -> 逐端口探测] -> Done
// 限时模式下流水线之间以及端口探测之间并发执行，并发总量由信号量限制；
// 无界模式下严格顺序执行。
type Runner struct {
	prober   PortProber
	pinger   alive.Pinger
	resolver alive.Resolver
	agg      *aggregator.Aggregator
	opts     Options
}

// New 创建 Runner 并装配默认实现
func New(opts Options, agg *aggregator.Aggregator) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Runner{
		prober:   probe.New(opts.Bounded, opts.Timeout),
		pinger:   alive.NewIcmpPinger(opts.PingTimeout),
		resolver: alive.NewNetResolver(),
		agg:      agg,
		opts:     opts,
	}
}

// SetProber 替换端口探测实现
func (r *Runner) SetProber(p PortProber) { r.prober = p }

// SetPinger 替换可达性检查实现
func (r *Runner) SetPinger(p alive.Pinger) { r.pinger = p }

// SetResolver 替换解析实现
func (r *Runner) SetResolver(res alive.Resolver) { r.resolver = res }

// Run 执行一次探测运行并返回有序报告
// targets 不做去重，重复目标在聚合阶段折叠 (last-write-wins)；
// ports 在此处校验、去重并升序排列，该顺序即报告列顺序。
func (r *Runner) Run(ctx context.Context, targets []string, ports []int) (*model.Report, error) {
	targets, err := model.NormalizeTargets(targets)
	if err != nil {
		return nil, err
	}
	ports, err = model.NormalizePorts(ports)
	if err != nil {
		return nil, err
	}

	layout := model.Layout{
		HasPing:    !r.opts.SkipPing,
		HasResolve: r.opts.Resolve,
		Ports:      ports,
	}

	logger.WithFields(logrus.Fields{
		"targets": len(targets),
		"ports":   len(ports),
		"bounded": r.opts.Bounded,
	}).Debug("starting probe run")

	r.agg.Begin()

	if r.opts.Bounded {
		// 信号量限制所有 target 上并发在途的端口探测总数
		sem := make(chan struct{}, r.opts.Concurrency)
		var wg sync.WaitGroup
		for _, target := range targets {
			wg.Add(1)
			go func(t string) {
				defer wg.Done()
				// 记录在本地构建完成后才写入聚合器，保证原子性
				r.agg.Record(r.probeTarget(ctx, t, ports, sem))
			}(target)
		}
		wg.Wait()
	} else {
		for _, target := range targets {
			r.agg.Record(r.probeTarget(ctx, target, ports, nil))
		}
	}

	return r.agg.Finalize(layout), nil
}

// probeTarget 执行单个目标的探测流水线，返回完整的 HostRecord
// 返回的记录中每个请求过的端口都有结果
func (r *Runner) probeTarget(ctx context.Context, target string, ports []int, sem chan struct{}) model.HostRecord {
	rec := model.HostRecord{
		Target: target,
		Ping:   model.PingNotChecked,
		Ports:  make(map[int]model.ProbeOutcome, len(ports)),
	}

	// PingCheck 阶段
	if !r.opts.SkipPing {
		if r.pinger.Ping(ctx, target) {
			rec.Ping = model.PingResponded
		} else {
			rec.Ping = model.PingNoResponse
			if !r.opts.ContinueOnPingFail {
				// 门禁未通过：所有端口标记 NotChecked，目标直接 Done
				for _, p := range ports {
					rec.Ports[p] = model.OutcomeNotChecked
				}
				logger.Debugf("target %s did not respond to ping, ports skipped", target)
				return rec
			}
		}
	}

	// ResolveIfRequested 阶段：解析失败只产生占位符，不会中止目标
	if r.opts.Resolve {
		rec.Resolved = r.resolver.Resolve(ctx, target)
	}

	// ProbeEachPort 阶段
	if sem != nil {
		// 限时模式：每个端口探测是独立的可取消工作单元
		outcomes := make([]model.ProbeOutcome, len(ports))
		var wg sync.WaitGroup
		for i, p := range ports {
			wg.Add(1)
			sem <- struct{}{}
			go func(idx, port int) {
				defer wg.Done()
				defer func() { <-sem }()
				outcomes[idx] = r.prober.Probe(ctx, target, port)
			}(i, p)
		}
		wg.Wait()
		for i, p := range ports {
			rec.Ports[p] = outcomes[i]
		}
	} else {
		// 无界模式：按升序逐个探测
		for _, p := range ports {
			rec.Ports[p] = r.prober.Probe(ctx, target, p)
		}
	}

	return rec
}
