package runner

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"neoprobe/internal/core/aggregator"
	"neoprobe/internal/core/model"
)

// MockPinger 模拟可达性检查
type MockPinger struct {
	alive map[string]bool
	calls int
	mu    sync.Mutex
}

func (m *MockPinger) Ping(ctx context.Context, target string) bool {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.alive[target]
}

// MockResolver 模拟解析
type MockResolver struct {
	result string
	calls  int
	mu     sync.Mutex
}

func (m *MockResolver) Resolve(ctx context.Context, target string) string {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.result == "" {
		return model.ResolveFailed
	}
	return m.result
}

// MockProber 模拟端口探测
type MockProber struct {
	outcome func(target string, port int) model.ProbeOutcome
	calls   int
	mu      sync.Mutex
}

func (m *MockProber) Probe(ctx context.Context, target string, port int) model.ProbeOutcome {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.outcome != nil {
		return m.outcome(target, port)
	}
	return model.OutcomeClosed
}

func (m *MockProber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestRunner(opts Options, prober *MockProber, pinger *MockPinger, resolver *MockResolver) (*Runner, *aggregator.Aggregator) {
	agg := aggregator.New()
	r := New(opts, agg)
	r.SetProber(prober)
	if pinger != nil {
		r.SetPinger(pinger)
	}
	if resolver != nil {
		r.SetResolver(resolver)
	}
	return r, agg
}

func TestRunPingGateSkipsPorts(t *testing.T) {
	prober := &MockProber{}
	pinger := &MockPinger{alive: map[string]bool{"up": true, "down": false}}
	resolver := &MockResolver{result: "10.0.0.1"}

	r, _ := newTestRunner(Options{Bounded: true, Timeout: time.Second, Resolve: true}, prober, pinger, resolver)

	report, err := r.Run(context.Background(), []string{"down", "up"}, []int{80, 443})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(report.Records))
	}

	// 字典序: down 在 up 前
	down := report.Records[0]
	if down.Target != "down" {
		t.Fatalf("expected first record to be 'down', got %s", down.Target)
	}
	if down.Ping != model.PingNoResponse {
		t.Errorf("expected no_response, got %s", down.Ping)
	}
	// 门禁未通过: 所有端口 NotChecked，解析也被跳过
	for _, p := range []int{80, 443} {
		if down.Ports[p] != model.OutcomeNotChecked {
			t.Errorf("port %d: expected not_checked, got %s", p, down.Ports[p])
		}
	}
	if down.Resolved != "" {
		t.Errorf("expected resolve skipped for gated host, got %q", down.Resolved)
	}

	up := report.Records[1]
	if up.Ping != model.PingResponded {
		t.Errorf("expected responded, got %s", up.Ping)
	}
	if up.Resolved != "10.0.0.1" {
		t.Errorf("expected resolved value, got %q", up.Resolved)
	}
	for _, p := range []int{80, 443} {
		if up.Ports[p] != model.OutcomeClosed {
			t.Errorf("port %d: expected closed, got %s", p, up.Ports[p])
		}
	}

	// down 主机的端口不应被探测: 只有 up 的 2 个端口
	if prober.Calls() != 2 {
		t.Errorf("expected 2 probe calls, got %d", prober.Calls())
	}
}

func TestRunContinueOnPingFail(t *testing.T) {
	prober := &MockProber{outcome: func(string, int) model.ProbeOutcome { return model.OutcomeOpen }}
	pinger := &MockPinger{alive: map[string]bool{}}

	r, _ := newTestRunner(Options{Bounded: true, Timeout: time.Second, ContinueOnPingFail: true}, prober, pinger, nil)

	report, err := r.Run(context.Background(), []string{"down"}, []int{80})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rec := report.Records[0]
	if rec.Ping != model.PingNoResponse {
		t.Errorf("expected no_response, got %s", rec.Ping)
	}
	// 无响应但仍然探测
	if rec.Ports[80] != model.OutcomeOpen {
		t.Errorf("expected open, got %s", rec.Ports[80])
	}
}

func TestRunSkipPing(t *testing.T) {
	prober := &MockProber{}
	pinger := &MockPinger{alive: map[string]bool{}}

	r, _ := newTestRunner(Options{Bounded: true, Timeout: time.Second, SkipPing: true}, prober, pinger, nil)

	report, err := r.Run(context.Background(), []string{"127.0.0.1"}, []int{1, 65535})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if pinger.calls != 0 {
		t.Errorf("expected no ping calls, got %d", pinger.calls)
	}
	if report.Layout.HasPing || report.Layout.HasResolve {
		t.Errorf("expected minimal layout, got %+v", report.Layout)
	}

	rec := report.Records[0]
	if rec.Ping != model.PingNotChecked {
		t.Errorf("expected not_checked ping, got %s", rec.Ping)
	}
	for _, p := range []int{1, 65535} {
		if rec.Ports[p] != model.OutcomeClosed {
			t.Errorf("port %d: expected closed, got %s", p, rec.Ports[p])
		}
	}
}

// 所有请求过的端口在记录完成后都必须有结果
func TestRunAllPortsPopulated(t *testing.T) {
	prober := &MockProber{outcome: func(_ string, port int) model.ProbeOutcome {
		if port%2 == 0 {
			return model.OutcomeOpen
		}
		return model.OutcomeClosedTimeout
	}}

	ports := []int{80, 81, 443, 8080, 8443}
	targets := []string{"h1", "h2", "h3"}

	r, _ := newTestRunner(Options{Bounded: true, Timeout: time.Second, SkipPing: true, Concurrency: 2}, prober, nil, nil)

	report, err := r.Run(context.Background(), targets, ports)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Records) != len(targets) {
		t.Fatalf("expected %d records, got %d", len(targets), len(report.Records))
	}
	for _, rec := range report.Records {
		if len(rec.Ports) != len(ports) {
			t.Fatalf("target %s: expected %d port entries, got %d", rec.Target, len(ports), len(rec.Ports))
		}
		for _, p := range ports {
			outcome, ok := rec.Ports[p]
			if !ok {
				t.Fatalf("target %s: missing outcome for port %d", rec.Target, p)
			}
			if outcome != model.OutcomeOpen && outcome != model.OutcomeClosedTimeout {
				t.Errorf("target %s port %d: unexpected outcome %s", rec.Target, p, outcome)
			}
		}
	}
	if prober.Calls() != len(targets)*len(ports) {
		t.Errorf("expected %d probe calls, got %d", len(targets)*len(ports), prober.Calls())
	}
}

// 重复目标折叠为一条记录，保留最后一次运行的结果
func TestRunDuplicateTargetCollapse(t *testing.T) {
	var calls int
	prober := &MockProber{outcome: func(string, int) model.ProbeOutcome {
		calls++
		if calls == 1 {
			return model.OutcomeClosed
		}
		return model.OutcomeOpen
	}}

	// 无界模式顺序执行，第二次探测后写入
	r, _ := newTestRunner(Options{SkipPing: true}, prober, nil, nil)

	report, err := r.Run(context.Background(), []string{"hostA", "hostA"}, []int{80})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Records) != 1 {
		t.Fatalf("expected 1 record for duplicate target, got %d", len(report.Records))
	}
	if report.Records[0].Ports[80] != model.OutcomeOpen {
		t.Errorf("expected second probe outcome (open), got %s", report.Records[0].Ports[80])
	}
}

func TestRunInvalidInput(t *testing.T) {
	prober := &MockProber{}
	r, _ := newTestRunner(Options{SkipPing: true}, prober, nil, nil)

	if _, err := r.Run(context.Background(), nil, []int{80}); err == nil {
		t.Error("expected error for empty target list")
	}
	if _, err := r.Run(context.Background(), []string{"h"}, []int{0}); err == nil {
		t.Error("expected error for invalid port")
	}
	if _, err := r.Run(context.Background(), []string{"h"}, nil); err == nil {
		t.Error("expected error for empty port list")
	}
}

// 端到端: 真实探测器对本地监听端口
func TestRunIntegrationLocalListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	openPort := ln.Addr().(*net.TCPAddr).Port

	// 预留一个无监听者的端口
	reserved, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	closedPort := reserved.Addr().(*net.TCPAddr).Port
	reserved.Close()

	agg := aggregator.New()
	r := New(Options{Bounded: true, Timeout: time.Second, SkipPing: true}, agg)

	report, err := r.Run(context.Background(), []string{"127.0.0.1"}, []int{openPort, closedPort})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rec := report.Records[0]
	if rec.Ports[openPort] != model.OutcomeOpen {
		t.Errorf("port %d: expected open, got %s", openPort, rec.Ports[openPort])
	}
	if rec.Ports[closedPort] != model.OutcomeClosed {
		t.Errorf("port %d: expected closed, got %s", closedPort, rec.Ports[closedPort])
	}
}

// 端口列直接来自请求列表的升序排列
func TestRunLayoutPortsAscending(t *testing.T) {
	prober := &MockProber{}
	r, _ := newTestRunner(Options{SkipPing: true}, prober, nil, nil)

	report, err := r.Run(context.Background(), []string{"h"}, []int{8080, 22, 443, 22})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []int{22, 443, 8080}
	if len(report.Layout.Ports) != len(want) {
		t.Fatalf("expected %v, got %v", want, report.Layout.Ports)
	}
	for i, p := range want {
		if report.Layout.Ports[i] != p {
			t.Fatalf("expected %v, got %v", want, report.Layout.Ports)
		}
	}
}
