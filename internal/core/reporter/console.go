package reporter

import (
	"context"
	"fmt"

	"neoprobe/internal/core/model"

	"github.com/pterm/pterm"
)

// ConsoleReporter 控制台表格输出
type ConsoleReporter struct{}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

func (r *ConsoleReporter) Report(ctx context.Context, report *model.Report) error {
	if report == nil || len(report.Records) == 0 {
		pterm.Warning.Println("No results found.")
		return nil
	}
	return r.printTable(report)
}

func (r *ConsoleReporter) printTable(data TabularData) error {
	tableData := pterm.TableData{data.Headers()}
	tableData = append(tableData, data.Rows()...)

	err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false). // 简洁风格
		WithData(tableData).
		Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
