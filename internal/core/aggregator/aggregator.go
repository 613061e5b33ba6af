/**
 * 结果聚合器
 * @description: 按 Target 聚合 HostRecord 并生成有序 Report，缓存最近一次报告。
 */

package aggregator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"neoprobe/internal/core/model"
)

// ErrNoDataYet 在任何一次运行完成之前调用 LastReport 返回此错误
var ErrNoDataYet = errors.New("no probe run has completed yet")

// Aggregator 聚合一次运行中的所有 HostRecord
// records 是唯一的共享可变状态，所有写入都经过互斥锁。
// 同名 Target 的记录覆盖旧值 (last-write-wins)。
type Aggregator struct {
	mu      sync.Mutex
	records map[string]model.HostRecord
	last    *model.Report
}

func New() *Aggregator {
	return &Aggregator{
		records: make(map[string]model.HostRecord),
	}
}

// Begin 开始一次新的运行，清空上次运行的记录 (缓存的报告保留)
func (a *Aggregator) Begin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make(map[string]model.HostRecord)
}

// Record 写入一条完整的主机记录
// 调用方必须保证记录已完整 (每个请求过的端口都有结果)
func (a *Aggregator) Record(rec model.HostRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[rec.Target] = rec
}

// Finalize 按 Target 字典序生成报告并缓存
// 排序与完成顺序无关，相同输入集合下可复现
func (a *Aggregator) Finalize(layout model.Layout) *model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	targets := make([]string, 0, len(a.records))
	for t := range a.records {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	records := make([]model.HostRecord, 0, len(targets))
	for _, t := range targets {
		records = append(records, a.records[t])
	}

	report := &model.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Layout:      layout,
		Records:     records,
	}
	a.last = report
	return report
}

// LastReport 返回最近一次 Finalize 的报告
func (a *Aggregator) LastReport() (*model.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil, ErrNoDataYet
	}
	return a.last, nil
}
