/**
 * 探测结果模型定义 (Core Domain)
 * @description: 端口探测结果的核心模型，连接 Runner 和 Reporter 的通用语言。
 */

package model

import (
	"fmt"
	"time"
)

// ProbeOutcome 单个端口的探测结果
type ProbeOutcome string

const (
	OutcomeOpen          ProbeOutcome = "open"           // 连接成功
	OutcomeClosed        ProbeOutcome = "closed"         // 连接失败 (拒绝/不可达等，不做区分)
	OutcomeClosedTimeout ProbeOutcome = "closed_timeout" // 限时模式下超时未完成
	OutcomeNotChecked    ProbeOutcome = "not_checked"    // Ping 门禁跳过，未探测
)

// Cell 返回该结果在表格/CSV 中的单元格编码
func (o ProbeOutcome) Cell() string {
	switch o {
	case OutcomeOpen:
		return "Open"
	case OutcomeClosed:
		return "Closed"
	case OutcomeClosedTimeout:
		return "Closed (t)"
	default:
		return "-"
	}
}

// PingStatus 主机的 ICMP 可达性状态
type PingStatus string

const (
	PingResponded  PingStatus = "responded"
	PingNoResponse PingStatus = "no_response"
	PingNotChecked PingStatus = "not_checked" // 未启用 Ping 门禁
)

// Cell 返回 Ping 列的单元格编码
func (s PingStatus) Cell() string {
	switch s {
	case PingResponded:
		return "Yes"
	case PingNoResponse:
		return "No"
	default:
		return "-"
	}
}

// ResolveFailed 解析失败时的占位符
const ResolveFailed = "N/A"

// HostRecord 单个目标的完整探测记录
// Ports 中每个请求过的端口都必须有一个条目 (即使是 NotChecked)
type HostRecord struct {
	Target   string               `json:"target"`
	Ping     PingStatus           `json:"ping"`
	Resolved string               `json:"resolved,omitempty"` // 多个地址以 ";" 连接
	Ports    map[int]ProbeOutcome `json:"ports"`
}

// Layout 报告的列布局
// 在一次运行开始时确定，之后不再变化，保证 retrieve last report 可复现同样的形状
type Layout struct {
	HasPing    bool  `json:"has_ping"`
	HasResolve bool  `json:"has_resolve"`
	Ports      []int `json:"ports"` // 升序
}

// Headers 返回固定顺序的表头: ComputerName, [Ping], [IP/DNS], Port <p>...
func (l Layout) Headers() []string {
	headers := []string{"ComputerName"}
	if l.HasPing {
		headers = append(headers, "Ping")
	}
	if l.HasResolve {
		headers = append(headers, "IP/DNS")
	}
	for _, p := range l.Ports {
		headers = append(headers, fmt.Sprintf("Port %d", p))
	}
	return headers
}

// Report 一次探测运行的完整结果，按 Target 字典序排列
type Report struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Layout      Layout       `json:"layout"`
	Records     []HostRecord `json:"records"`
}

// Headers 实现 TabularData 接口
func (r *Report) Headers() []string {
	return r.Layout.Headers()
}

// Rows 实现 TabularData 接口，单元格编码见 ProbeOutcome.Cell / PingStatus.Cell
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		row := []string{rec.Target}
		if r.Layout.HasPing {
			row = append(row, rec.Ping.Cell())
		}
		if r.Layout.HasResolve {
			row = append(row, rec.Resolved)
		}
		for _, p := range r.Layout.Ports {
			row = append(row, rec.Ports[p].Cell())
		}
		rows = append(rows, row)
	}
	return rows
}

// OpenCount 统计报告中 Open 端口总数 (用于运行摘要)
func (r *Report) OpenCount() int {
	n := 0
	for _, rec := range r.Records {
		for _, outcome := range rec.Ports {
			if outcome == OutcomeOpen {
				n++
			}
		}
	}
	return n
}
