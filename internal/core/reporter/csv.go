package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"neoprobe/internal/core/model"
)

// CsvReporter 将报告导出为 CSV 文件
type CsvReporter struct {
	FilePath string
}

func NewCsvReporter(filePath string) *CsvReporter {
	return &CsvReporter{
		FilePath: filePath,
	}
}

func (r *CsvReporter) Report(ctx context.Context, report *model.Report) error {
	return SaveCsvReport(r.FilePath, report)
}

// SaveCsvReport 一次性将报告保存为 CSV
// 列顺序固定: ComputerName, [Ping], [IP/DNS], Port <p>... (端口升序)
func SaveCsvReport(path string, report *model.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	// 写入 UTF-8 BOM，防止 Excel 打开乱码
	if _, err := f.WriteString("\xEF\xBB\xBF"); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(report.Headers()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := w.WriteAll(report.Rows()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}
