package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pagesim/services/simulator-svc/internal/policy"
)

const (
	summarySheet    = "Summary"
	stepsSheet      = "Steps"
	comparisonSheet = "Comparison"
	sweepSheet      = "Sweep"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatExcel
}

// Generate генерирует книгу: сводка, шаги с графиком промахов, сравнение и развёртка по ёмкости
func (g *ExcelGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := g.writeSummary(f, data, headerStyle); err != nil {
		return nil, err
	}
	if err := g.writeSteps(f, data, headerStyle); err != nil {
		return nil, err
	}
	if data.Comparison != nil {
		if err := g.writeComparison(f, data, headerStyle); err != nil {
			return nil, err
		}
	}
	if data.Sweep != nil {
		if err := g.writeSweep(f, data, headerStyle); err != nil {
			return nil, err
		}
	}

	// Удаляем дефолтный лист
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if idx, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *Data, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	r := data.Result

	f.SetCellValue(summarySheet, Cell("A", 1), g.GetTitle(data))
	f.MergeCell(summarySheet, Cell("A", 1), Cell("B", 1))

	f.SetCellValue(summarySheet, Cell("A", 3), "Parameter")
	f.SetCellValue(summarySheet, Cell("B", 3), "Value")
	f.SetCellStyle(summarySheet, Cell("A", 3), Cell("B", 3), headerStyle)

	rows := [][2]any{
		{"Algorithm", g.AlgorithmName(data)},
		{"Reference String", g.FormatReferences(r.ReferenceSequence)},
		{"Number of Frames", r.FrameCount},
		{"Total Steps", r.Len()},
		{"Page Faults", r.TotalFaults},
		{"Page Hits", r.TotalHits},
		{"Evictions", r.Evictions()},
		{"Hit Rate", g.FormatPercent(r.HitRate())},
		{"Author", g.GetAuthor(data)},
		{"Generated", g.FormatTimestamp(g.GeneratedAt(data))},
	}
	for i, kv := range rows {
		row := 4 + i
		f.SetCellValue(summarySheet, Cell("A", row), kv[0])
		f.SetCellValue(summarySheet, Cell("B", row), kv[1])
	}

	if data.Explanation != "" {
		row := 5 + len(rows)
		f.SetCellValue(summarySheet, Cell("A", row), "Analysis")
		f.SetCellValue(summarySheet, Cell("B", row), data.Explanation)
	}

	f.SetColWidth(summarySheet, "A", "A", 20)
	f.SetColWidth(summarySheet, "B", "B", 50)
	return nil
}

// writeSteps таблица шагов: по колонке на слот и линейный график накопленных промахов
func (g *ExcelGenerator) writeSteps(f *excelize.File, data *Data, headerStyle int) error {
	if _, err := f.NewSheet(stepsSheet); err != nil {
		return err
	}
	frames := data.Result.FrameCount

	headers := []string{"Step", "Page", "Result"}
	for i := 0; i < frames; i++ {
		headers = append(headers, fmt.Sprintf("Frame %d", i))
	}
	headers = append(headers, "Replaced", "Cumulative Faults", "Cumulative Hits", "Explanation")
	faultsCol := ColName(3 + frames + 1)

	for i, h := range headers {
		f.SetCellValue(stepsSheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(stepsSheet, CellByIndex(0, 1), CellByIndex(len(headers)-1, 1), headerStyle)

	steps, omitted := g.Steps(data)
	for i, s := range steps {
		row := i + 2
		f.SetCellValue(stepsSheet, CellByIndex(0, row), s.StepNumber)
		f.SetCellValue(stepsSheet, CellByIndex(1, row), s.Page)
		f.SetCellValue(stepsSheet, CellByIndex(2, row), s.Outcome())
		for slot, p := range s.FramesAfter {
			if p == policy.EmptySlot {
				f.SetCellValue(stepsSheet, CellByIndex(3+slot, row), "Empty")
			} else {
				f.SetCellValue(stepsSheet, CellByIndex(3+slot, row), p)
			}
		}
		col := 3 + frames
		f.SetCellValue(stepsSheet, CellByIndex(col, row), g.FormatReplaced(s))
		f.SetCellValue(stepsSheet, CellByIndex(col+1, row), s.CumulativeFaults)
		f.SetCellValue(stepsSheet, CellByIndex(col+2, row), s.CumulativeHits)
		f.SetCellValue(stepsSheet, CellByIndex(col+3, row), s.Explanation)
	}
	if omitted > 0 {
		f.SetCellValue(stepsSheet, CellByIndex(0, len(steps)+2), fmt.Sprintf("%d more steps omitted", omitted))
	}

	f.SetColWidth(stepsSheet, "A", ColName(len(headers)-2), 12)
	f.SetColWidth(stepsSheet, ColName(len(headers)-1), ColName(len(headers)-1), 60)

	if len(steps) == 0 {
		return nil
	}
	last := len(steps) + 1
	return f.AddChart(stepsSheet, CellByIndex(len(headers)+1, 2), &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$%s$1", stepsSheet, faultsCol),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", stepsSheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", stepsSheet, faultsCol, faultsCol, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Cumulative Page Faults"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

func (g *ExcelGenerator) writeComparison(f *excelize.File, data *Data, headerStyle int) error {
	if _, err := f.NewSheet(comparisonSheet); err != nil {
		return err
	}

	headers := []string{"Rank", "Algorithm", "Faults", "Hits", "Hit Rate", "Gap To Optimal"}
	for i, h := range headers {
		f.SetCellValue(comparisonSheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(comparisonSheet, CellByIndex(0, 1), CellByIndex(len(headers)-1, 1), headerStyle)

	for i, e := range data.Comparison.Entries {
		row := i + 2
		f.SetCellValue(comparisonSheet, CellByIndex(0, row), e.Rank)
		f.SetCellValue(comparisonSheet, CellByIndex(1, row), e.Name)
		f.SetCellValue(comparisonSheet, CellByIndex(2, row), e.Faults)
		f.SetCellValue(comparisonSheet, CellByIndex(3, row), e.Hits)
		f.SetCellValue(comparisonSheet, CellByIndex(4, row), g.FormatPercent(e.HitRate))
		f.SetCellValue(comparisonSheet, CellByIndex(5, row), e.GapToOptimal)
	}

	f.SetColWidth(comparisonSheet, "A", "F", 18)
	f.SetColWidth(comparisonSheet, "B", "B", 30)
	return nil
}

func (g *ExcelGenerator) writeSweep(f *excelize.File, data *Data, headerStyle int) error {
	if _, err := f.NewSheet(sweepSheet); err != nil {
		return err
	}

	for i, h := range []string{"Frames", "Faults", "Hit Rate"} {
		f.SetCellValue(sweepSheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(sweepSheet, Cell("A", 1), Cell("C", 1), headerStyle)

	points := data.Sweep.Points
	for i, p := range points {
		row := i + 2
		f.SetCellValue(sweepSheet, Cell("A", row), p.Frames)
		f.SetCellValue(sweepSheet, Cell("B", row), p.Faults)
		f.SetCellValue(sweepSheet, Cell("C", row), g.FormatPercent(p.HitRate))
	}

	row := len(points) + 3
	for _, a := range data.Sweep.Anomalies {
		f.SetCellValue(sweepSheet, Cell("A", row), "Belady anomaly")
		f.SetCellValue(sweepSheet, Cell("B", row), fmt.Sprintf("%d -> %d frames", a.FromFrames, a.ToFrames))
		f.SetCellValue(sweepSheet, Cell("C", row), fmt.Sprintf("%d -> %d faults", a.FromFaults, a.ToFaults))
		row++
	}

	f.SetColWidth(sweepSheet, "A", "C", 18)
	return nil
}
