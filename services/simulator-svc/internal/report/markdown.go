package report

import (
	"bytes"
	"context"
	"fmt"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	BaseGenerator
}

// NewMarkdownGenerator создаёт новый генератор
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Format возвращает формат генератора
func (g *MarkdownGenerator) Format() Format {
	return FormatMarkdown
}

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	g.writeHeader(&buf, data)
	g.writeMetrics(&buf, data)
	g.writeSteps(&buf, data)

	if data.Comparison != nil {
		g.writeComparison(&buf, data)
	}
	if data.Sweep != nil {
		g.writeSweep(&buf, data)
	}
	if data.Explanation != "" {
		buf.WriteString("## Analysis\n\n")
		buf.WriteString(data.Explanation)
		buf.WriteString("\n\n")
	}

	g.writeFooter(&buf, data)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *Data) {
	fmt.Fprintf(buf, "# %s\n\n", g.GetTitle(data))

	buf.WriteString("## Report Information\n\n")
	fmt.Fprintf(buf, "- **Generated:** %s\n", g.FormatTimestamp(g.GeneratedAt(data)))
	fmt.Fprintf(buf, "- **Author:** %s\n", g.GetAuthor(data))
	if data.Options.Description != "" {
		fmt.Fprintf(buf, "- **Description:** %s\n", data.Options.Description)
	}

	buf.WriteString("\n---\n\n")
}

func (g *MarkdownGenerator) writeMetrics(buf *bytes.Buffer, data *Data) {
	r := data.Result

	buf.WriteString("## Simulation\n\n")
	fmt.Fprintf(buf, "- **Algorithm:** %s\n", g.AlgorithmName(data))
	fmt.Fprintf(buf, "- **Reference String:** `%s`\n", g.FormatReferences(r.ReferenceSequence))
	fmt.Fprintf(buf, "- **Number of Frames:** %d\n", r.FrameCount)
	fmt.Fprintf(buf, "- **Total Steps:** %d\n\n", r.Len())

	buf.WriteString("## Performance Metrics\n\n")
	buf.WriteString("| Metric | Value |\n")
	buf.WriteString("|--------|-------|\n")
	fmt.Fprintf(buf, "| Page Faults | %d |\n", r.TotalFaults)
	fmt.Fprintf(buf, "| Page Hits | %d |\n", r.TotalHits)
	fmt.Fprintf(buf, "| Evictions | %d |\n", r.Evictions())
	fmt.Fprintf(buf, "| Hit Rate | %s |\n\n", g.FormatPercent(r.HitRate()))
}

func (g *MarkdownGenerator) writeSteps(buf *bytes.Buffer, data *Data) {
	steps, omitted := g.Steps(data)

	buf.WriteString("## Step-by-Step Execution\n\n")
	buf.WriteString("| Step | Page | Result | Frames After | Replaced | Explanation |\n")
	buf.WriteString("|------|------|--------|--------------|----------|-------------|\n")
	for _, s := range steps {
		fmt.Fprintf(buf, "| %d | %d | %s | %s | %s | %s |\n",
			s.StepNumber, s.Page, s.Outcome(), s.FramesAfter, g.FormatReplaced(s), s.Explanation)
	}
	if omitted > 0 {
		fmt.Fprintf(buf, "\n*%d more steps omitted*\n", omitted)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeComparison(buf *bytes.Buffer, data *Data) {
	c := data.Comparison

	buf.WriteString("## Algorithm Comparison\n\n")
	buf.WriteString("| Rank | Algorithm | Faults | Hits | Hit Rate | Gap To Optimal |\n")
	buf.WriteString("|------|-----------|--------|------|----------|----------------|\n")
	for _, e := range c.Entries {
		fmt.Fprintf(buf, "| %d | %s | %d | %d | %s | %+d |\n",
			e.Rank, e.Name, e.Faults, e.Hits, g.FormatPercent(e.HitRate), e.GapToOptimal)
	}
	buf.WriteString("\n")

	if len(c.Entries) > 0 {
		fmt.Fprintf(buf, "Best algorithm on this input: **%s** (%d faults)\n\n", c.Entries[0].Name, c.Entries[0].Faults)
	}
}

func (g *MarkdownGenerator) writeSweep(buf *bytes.Buffer, data *Data) {
	s := data.Sweep

	fmt.Fprintf(buf, "## Capacity Sweep (%s)\n\n", s.Algorithm)
	buf.WriteString("| Frames | Faults | Hit Rate |\n")
	buf.WriteString("|--------|--------|----------|\n")
	for _, p := range s.Points {
		fmt.Fprintf(buf, "| %d | %d | %s |\n", p.Frames, p.Faults, g.FormatPercent(p.HitRate))
	}
	buf.WriteString("\n")

	if !s.HasAnomaly() {
		buf.WriteString("No Belady anomaly in this range.\n\n")
		return
	}
	buf.WriteString("### Belady Anomalies\n\n")
	for _, a := range s.Anomalies {
		fmt.Fprintf(buf, "- %d → %d frames: faults grew from %d to %d\n",
			a.FromFrames, a.ToFrames, a.FromFaults, a.ToFaults)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer, data *Data) {
	buf.WriteString("---\n\n")
	fmt.Fprintf(buf, "*Report generated automatically by %s*\n", g.GetCompany(data))
}
