package report

import (
	"bytes"
	"context"
	"fmt"
)

// TextGenerator текстовая сводка прогона
type TextGenerator struct {
	BaseGenerator
}

// NewTextGenerator создаёт новый генератор
func NewTextGenerator() *TextGenerator {
	return &TextGenerator{}
}

// Format возвращает формат генератора
func (g *TextGenerator) Format() Format {
	return FormatText
}

// Generate генерирует текстовую сводку
func (g *TextGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	r := data.Result

	var buf bytes.Buffer
	buf.WriteString("Page Fault Simulation Summary\n")
	buf.WriteString("================================\n\n")
	fmt.Fprintf(&buf, "Algorithm: %s\n", g.AlgorithmName(data))
	fmt.Fprintf(&buf, "Reference String: %s\n", g.FormatReferences(r.ReferenceSequence))
	fmt.Fprintf(&buf, "Number of Frames: %d\n", r.FrameCount)
	fmt.Fprintf(&buf, "Total Steps: %d\n\n", r.Len())

	buf.WriteString("Performance Metrics:\n")
	fmt.Fprintf(&buf, "- Page Faults: %d\n", r.TotalFaults)
	fmt.Fprintf(&buf, "- Page Hits: %d\n", r.TotalHits)
	fmt.Fprintf(&buf, "- Hit Rate: %s\n\n", g.FormatPercent(r.HitRate()))

	buf.WriteString("Step-by-Step Execution:\n")
	buf.WriteString("========================\n")

	steps, omitted := g.Steps(data)
	for _, s := range steps {
		fmt.Fprintf(&buf, "Step %d: Access page %d - %s\n", s.StepNumber, s.Page, s.Outcome())
		fmt.Fprintf(&buf, "  %s\n", s.Explanation)
		fmt.Fprintf(&buf, "  Frames after: %s\n\n", s.FramesAfter)
	}
	if omitted > 0 {
		fmt.Fprintf(&buf, "... %d more steps omitted\n\n", omitted)
	}

	if data.Explanation != "" {
		buf.WriteString("Analysis:\n")
		buf.WriteString("=========\n")
		buf.WriteString(data.Explanation)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}
