package dialer

import (
	"context"
	"net"
	"time"
)

// Dialer 定义了网络连接器接口
// 探测器通过该接口建立连接，便于替换为代理拨号器或测试桩
type Dialer interface {
	// DialContext 建立连接
	// network: 协议 (tcp)
	// address: 目标地址 (host:port)
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultDialer 默认直连拨号器
// Timeout 为 0 时使用操作系统默认的连接超时 (无界模式依赖这一行为)
type DefaultDialer struct {
	Timeout time.Duration
}

func NewDefaultDialer(timeout time.Duration) *DefaultDialer {
	return &DefaultDialer{
		Timeout: timeout,
	}
}

func (d *DefaultDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout: d.Timeout,
	}
	return dialer.DialContext(ctx, network, address)
}
