package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neoprobe/internal/core/model"
)

func record(target string, outcome model.ProbeOutcome) model.HostRecord {
	return model.HostRecord{
		Target: target,
		Ping:   model.PingNotChecked,
		Ports:  map[int]model.ProbeOutcome{80: outcome},
	}
}

func TestLastReportBeforeAnyRun(t *testing.T) {
	agg := New()
	_, err := agg.LastReport()
	assert.ErrorIs(t, err, ErrNoDataYet)
}

func TestDuplicateTargetOverwrite(t *testing.T) {
	agg := New()
	agg.Begin()
	agg.Record(record("hostA", model.OutcomeClosed))
	agg.Record(record("hostA", model.OutcomeOpen))

	report := agg.Finalize(model.Layout{Ports: []int{80}})
	require.Len(t, report.Records, 1)
	// 后写入的记录生效 (last-write-wins)
	assert.Equal(t, model.OutcomeOpen, report.Records[0].Ports[80])
}

func TestSnapshotOrderIsLexicographic(t *testing.T) {
	agg := New()
	agg.Begin()
	// 乱序写入，快照必须按 Target 字典序
	agg.Record(record("zeta", model.OutcomeClosed))
	agg.Record(record("alpha", model.OutcomeClosed))
	agg.Record(record("10.0.0.2", model.OutcomeClosed))
	agg.Record(record("10.0.0.10", model.OutcomeClosed))

	report := agg.Finalize(model.Layout{Ports: []int{80}})
	require.Len(t, report.Records, 4)
	assert.Equal(t, "10.0.0.10", report.Records[0].Target)
	assert.Equal(t, "10.0.0.2", report.Records[1].Target)
	assert.Equal(t, "alpha", report.Records[2].Target)
	assert.Equal(t, "zeta", report.Records[3].Target)
}

func TestLastReportKeepsLayout(t *testing.T) {
	agg := New()
	agg.Begin()
	agg.Record(record("hostA", model.OutcomeOpen))

	layout := model.Layout{HasPing: true, HasResolve: true, Ports: []int{80}}
	finalized := agg.Finalize(layout)
	require.NotEmpty(t, finalized.RunID)

	// 取回的报告与运行结果形状完全一致
	last, err := agg.LastReport()
	require.NoError(t, err)
	assert.Equal(t, finalized, last)
	assert.Equal(t, layout, last.Layout)
}

func TestBeginClearsRecordsButKeepsLastReport(t *testing.T) {
	agg := New()
	agg.Begin()
	agg.Record(record("hostA", model.OutcomeOpen))
	first := agg.Finalize(model.Layout{Ports: []int{80}})

	// 新一轮运行开始后，上一份报告仍可取回
	agg.Begin()
	last, err := agg.LastReport()
	require.NoError(t, err)
	assert.Equal(t, first, last)

	// 新一轮只包含新记录
	agg.Record(record("hostB", model.OutcomeClosed))
	second := agg.Finalize(model.Layout{Ports: []int{80}})
	require.Len(t, second.Records, 1)
	assert.Equal(t, "hostB", second.Records[0].Target)
	assert.NotEqual(t, first.RunID, second.RunID)
}
