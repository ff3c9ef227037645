package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV: шапка со сводкой, затем таблица шагов
func (g *CSVGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	g.writeSummary(cw, data)
	g.writeSteps(cw, data)
	if data.Comparison != nil {
		g.writeComparison(cw, data)
	}
	if data.Sweep != nil {
		g.writeSweep(cw, data)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeSummary(w *csvWriter, data *Data) {
	r := data.Result
	w.Write([]string{"# " + g.GetTitle(data)})
	w.Write([]string{"Algorithm", g.AlgorithmName(data)})
	w.Write([]string{"Reference String", g.FormatReferences(r.ReferenceSequence)})
	w.Write([]string{"Number of Frames", fmt.Sprintf("%d", r.FrameCount)})
	w.Write([]string{"Total Steps", fmt.Sprintf("%d", r.Len())})
	w.Write([]string{"Page Faults", fmt.Sprintf("%d", r.TotalFaults)})
	w.Write([]string{"Page Hits", fmt.Sprintf("%d", r.TotalHits)})
	w.Write([]string{"Hit Rate", g.FormatPercent(r.HitRate())})
	w.Write([]string{""})
}

func (g *CSVGenerator) writeSteps(w *csvWriter, data *Data) {
	w.Write([]string{"Step", "Page", "Result", "Frames Before", "Frames After",
		"Replaced Page", "Replaced Slot", "Cumulative Faults", "Cumulative Hits", "Explanation"})

	steps, omitted := g.Steps(data)
	for _, s := range steps {
		slot := "-"
		if s.IsFault {
			slot = fmt.Sprintf("%d", s.ReplacedIndex)
		}
		w.Write([]string{
			fmt.Sprintf("%d", s.StepNumber),
			fmt.Sprintf("%d", s.Page),
			s.Outcome(),
			s.FramesBefore.String(),
			s.FramesAfter.String(),
			g.FormatReplaced(s),
			slot,
			fmt.Sprintf("%d", s.CumulativeFaults),
			fmt.Sprintf("%d", s.CumulativeHits),
			s.Explanation,
		})
	}
	if omitted > 0 {
		w.Write([]string{fmt.Sprintf("# %d more steps omitted", omitted)})
	}
}

func (g *CSVGenerator) writeComparison(w *csvWriter, data *Data) {
	w.Write([]string{""})
	w.Write([]string{"# Algorithm Comparison"})
	w.Write([]string{"Rank", "Algorithm", "Faults", "Hits", "Hit Rate", "Gap To Optimal"})
	for _, e := range data.Comparison.Entries {
		w.Write([]string{
			fmt.Sprintf("%d", e.Rank),
			e.Algorithm.String(),
			fmt.Sprintf("%d", e.Faults),
			fmt.Sprintf("%d", e.Hits),
			g.FormatPercent(e.HitRate),
			fmt.Sprintf("%d", e.GapToOptimal),
		})
	}
}

func (g *CSVGenerator) writeSweep(w *csvWriter, data *Data) {
	w.Write([]string{""})
	w.Write([]string{"# Capacity Sweep (" + data.Sweep.Algorithm.String() + ")"})
	w.Write([]string{"Frames", "Faults", "Hit Rate"})
	for _, p := range data.Sweep.Points {
		w.Write([]string{
			fmt.Sprintf("%d", p.Frames),
			fmt.Sprintf("%d", p.Faults),
			g.FormatPercent(p.HitRate),
		})
	}
	for _, a := range data.Sweep.Anomalies {
		w.Write([]string{"Belady anomaly",
			fmt.Sprintf("%d -> %d frames", a.FromFrames, a.ToFrames),
			fmt.Sprintf("%d -> %d faults", a.FromFaults, a.ToFaults)})
	}
}
