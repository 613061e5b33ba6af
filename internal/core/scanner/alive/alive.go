/**
 * 主机可达性探测 (ICMP Ping)
 * @description: Ping 门禁的适配层，Runner 通过 Pinger 接口调用。
 */

package alive

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

const DefaultPingTimeout = 1 * time.Second

// Pinger 主机可达性检查接口
type Pinger interface {
	// Ping 返回目标是否在限定时间内响应
	// 任何错误 (权限不足、无法解析等) 都视为无响应，不向上传播
	Ping(ctx context.Context, target string) bool
}

// IcmpPinger 使用 ICMP Echo 探测
type IcmpPinger struct {
	Timeout time.Duration
}

func NewIcmpPinger(timeout time.Duration) *IcmpPinger {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &IcmpPinger{Timeout: timeout}
}

func (p *IcmpPinger) Ping(ctx context.Context, target string) bool {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return false
	}

	// Windows 下必须特权模式；Linux 下取决于 ping_group_range sysctl，统一走 raw socket
	pinger.SetPrivileged(true)

	pinger.Count = 1
	pinger.Timeout = p.Timeout

	if err := pinger.RunWithContext(ctx); err != nil {
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
