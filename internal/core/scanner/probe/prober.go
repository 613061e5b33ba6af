/**
 * 端口探测器
 * @description: 对单个 host:port 执行一次 TCP Connect 探测并分类结果。
 */

package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"neoprobe/internal/core/lib/network/dialer"
	"neoprobe/internal/core/model"
)

const DefaultTimeout = 3 * time.Second

// Prober TCP Connect 探测器
// 限时模式下每次探测使用独立的 context 截止时间 (精确 deadline，而非 轮询等待)；
// 无界模式下依赖操作系统默认的连接超时。
// 所有连接错误都被吞掉并映射为结果值：本工具的契约是 "closed-or-unreachable" 报告，
// 不做错误诊断，探测永远不会让整个批次中断。
type Prober struct {
	Bounded bool
	Timeout time.Duration

	// Dialer 为 nil 时使用全局拨号器 (测试时可注入)
	Dialer dialer.Dialer
}

func New(bounded bool, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		Bounded: bounded,
		Timeout: timeout,
	}
}

// Probe 对 target:port 执行一次探测
// 任何退出路径都不会遗留打开的 socket：成功的连接立即关闭，
// 超时被取消的连接由拨号器负责释放。
func (p *Prober) Probe(ctx context.Context, target string, port int) model.ProbeOutcome {
	address := net.JoinHostPort(target, strconv.Itoa(port))

	if !p.Bounded {
		// 无界模式：系统默认连接超时，成功即 Open，任何失败一律 Closed
		conn, err := p.dialer().DialContext(ctx, "tcp", address)
		if err != nil {
			return model.OutcomeClosed
		}
		conn.Close()
		return model.OutcomeOpen
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dialer().DialContext(dialCtx, "tcp", address)
	if err != nil {
		if isTimeout(err) {
			return model.OutcomeClosedTimeout
		}
		return model.OutcomeClosed
	}
	conn.Close()
	return model.OutcomeOpen
}

func (p *Prober) dialer() dialer.Dialer {
	if p.Dialer != nil {
		return p.Dialer
	}
	return dialer.Get()
}

// isTimeout 判断连接错误是否为超时/截止时间到期
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
