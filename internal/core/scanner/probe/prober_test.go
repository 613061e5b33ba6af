package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"neoprobe/internal/core/model"
)

// blockingDialer 模拟永远无法完成握手的目标 (黑洞地址)
// 阻塞到 ctx 截止时间为止，返回 ctx 错误
type blockingDialer struct{}

func (blockingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func startListener(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// closedPort 返回一个当前没有监听者的本地端口
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestProbeOpen(t *testing.T) {
	ln, port := startListener(t)
	defer ln.Close()

	p := New(true, time.Second)
	if got := p.Probe(context.Background(), "127.0.0.1", port); got != model.OutcomeOpen {
		t.Errorf("expected open, got %s", got)
	}
}

func TestProbeClosed(t *testing.T) {
	port := closedPort(t)

	p := New(true, time.Second)
	// 幂等: 无监听者的端口两次探测都是 Closed
	for i := 0; i < 2; i++ {
		if got := p.Probe(context.Background(), "127.0.0.1", port); got != model.OutcomeClosed {
			t.Errorf("attempt %d: expected closed, got %s", i+1, got)
		}
	}
}

func TestProbeUnboundedMode(t *testing.T) {
	ln, openPort := startListener(t)
	defer ln.Close()

	p := New(false, 0)
	if got := p.Probe(context.Background(), "127.0.0.1", openPort); got != model.OutcomeOpen {
		t.Errorf("expected open, got %s", got)
	}
	// 无界模式下任何失败一律 Closed，不区分超时
	if got := p.Probe(context.Background(), "127.0.0.1", closedPort(t)); got != model.OutcomeClosed {
		t.Errorf("expected closed, got %s", got)
	}
}

// 超时边界: 握手永不完成的目标必须在接近超时的窗口内返回 ClosedTimeout
func TestProbeTimeoutBoundary(t *testing.T) {
	p := New(true, 300*time.Millisecond)
	p.Dialer = blockingDialer{}

	start := time.Now()
	got := p.Probe(context.Background(), "10.255.255.1", 80)
	elapsed := time.Since(start)

	if got != model.OutcomeClosedTimeout {
		t.Errorf("expected closed_timeout, got %s", got)
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("returned before the deadline: %v", elapsed)
	}
	if elapsed > 1*time.Second {
		t.Errorf("blocked well past the deadline: %v", elapsed)
	}
}

func TestProbeDefaultTimeout(t *testing.T) {
	p := New(true, 0)
	if p.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, p.Timeout)
	}
}
