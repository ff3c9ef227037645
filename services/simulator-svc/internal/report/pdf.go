package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	pdfconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"pagesim/pkg/config"
	"pagesim/services/simulator-svc/internal/trace"
)

// charsPerLine оценка ширины строки при шрифте 10 на A4
const charsPerLine = 95

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
	cfg config.PDFConfig
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator(cfg config.PDFConfig) *PDFGenerator {
	return &PDFGenerator{cfg: cfg}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
		Top:   9,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  8,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	builder := pdfconfig.NewBuilder().
		WithLeftMargin(g.margin(g.cfg.MarginLeft)).
		WithTopMargin(g.margin(g.cfg.MarginTop)).
		WithRightMargin(g.margin(g.cfg.MarginRight))
	if g.cfg.EnablePageNumbers {
		builder = builder.WithPageNumber()
	}

	m := maroto.New(builder.Build())

	g.addHeader(m, data)
	g.addMetrics(m, data)

	g.addSection(m, "Step-by-Step Execution")
	g.addStepsTable(m, data)

	if data.Comparison != nil {
		g.addSection(m, "Algorithm Comparison")
		g.addComparisonTable(m, data.Comparison)
	}
	if data.Sweep != nil {
		g.addSection(m, fmt.Sprintf("Capacity Sweep (%s)", data.Sweep.Algorithm))
		g.addSweepTable(m, data.Sweep)
	}
	if data.Explanation != "" {
		g.addSection(m, "Analysis")
		g.addParagraphs(m, data.Explanation)
	}

	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) margin(v float64) float64 {
	if v <= 0 {
		return 15
	}
	return v
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *Data) {
	m.AddRow(15,
		text.NewCol(12, g.GetTitle(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Author: %s", g.GetAuthor(data)), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if data.Options.Description != "" {
		m.AddRow(5,
			text.NewCol(12, data.Options.Description, smallStyle),
		)
	}

	m.AddRow(8) // Отступ
}

func (g *PDFGenerator) addMetrics(m core.Maroto, data *Data) {
	r := data.Result

	g.addSection(m, "Simulation")
	g.addKeyValueTable(m, []keyValue{
		{"Algorithm", g.AlgorithmName(data)},
		{"Reference String", g.FormatReferences(r.ReferenceSequence)},
		{"Number of Frames", fmt.Sprintf("%d", r.FrameCount)},
		{"Total Steps", fmt.Sprintf("%d", r.Len())},
	})

	g.addSection(m, "Performance Metrics")
	g.addMetricCards(m, []metricCard{
		{Label: "Page Faults", Value: fmt.Sprintf("%d", r.TotalFaults)},
		{Label: "Page Hits", Value: fmt.Sprintf("%d", r.TotalHits)},
		{Label: "Hit Rate", Value: g.FormatPercent(r.HitRate())},
	})
}

type metricCard struct {
	Label string
	Value string
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, metricValueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(4, item.Key, boldStyle),
			text.NewCol(8, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(4)
}

func (g *PDFGenerator) headerCol(size int, title string) core.Col {
	return text.NewCol(size, title, tableHeaderTextStyle).WithStyle(tableHeaderStyle)
}

func (g *PDFGenerator) cellCol(size int, value string) core.Col {
	return text.NewCol(size, value, tableCellTextStyle).WithStyle(tableCellStyle)
}

func (g *PDFGenerator) addStepsTable(m core.Maroto, data *Data) {
	m.AddRow(8,
		g.headerCol(1, "Step"),
		g.headerCol(1, "Page"),
		g.headerCol(2, "Result"),
		g.headerCol(4, "Frames After"),
		g.headerCol(2, "Replaced"),
		g.headerCol(2, "Faults"),
	)

	steps, omitted := g.Steps(data)
	for _, s := range steps {
		outcome := tableCellTextStyle
		outcome.Style = fontstyle.Bold
		outcome.Color = dangerColor
		if s.IsHit {
			outcome.Color = successColor
		}

		m.AddRow(6,
			g.cellCol(1, fmt.Sprintf("%d", s.StepNumber)),
			g.cellCol(1, fmt.Sprintf("%d", s.Page)),
			text.NewCol(2, s.Outcome(), outcome).WithStyle(tableCellStyle),
			g.cellCol(4, s.FramesAfter.String()),
			g.cellCol(2, g.FormatReplaced(s)),
			g.cellCol(2, fmt.Sprintf("%d", s.CumulativeFaults)),
		)
	}

	if omitted > 0 {
		m.AddRow(6,
			text.NewCol(12, fmt.Sprintf("... and %d more steps", omitted), smallStyle),
		)
	}
}

func (g *PDFGenerator) addComparisonTable(m core.Maroto, c *trace.Comparison) {
	m.AddRow(8,
		g.headerCol(1, "Rank"),
		g.headerCol(5, "Algorithm"),
		g.headerCol(2, "Faults"),
		g.headerCol(2, "Hit Rate"),
		g.headerCol(2, "Gap"),
	)
	for _, e := range c.Entries {
		m.AddRow(6,
			g.cellCol(1, fmt.Sprintf("%d", e.Rank)),
			g.cellCol(5, e.Name),
			g.cellCol(2, fmt.Sprintf("%d", e.Faults)),
			g.cellCol(2, g.FormatPercent(e.HitRate)),
			g.cellCol(2, fmt.Sprintf("%+d", e.GapToOptimal)),
		)
	}
}

func (g *PDFGenerator) addSweepTable(m core.Maroto, s *trace.Sweep) {
	m.AddRow(8,
		g.headerCol(4, "Frames"),
		g.headerCol(4, "Faults"),
		g.headerCol(4, "Hit Rate"),
	)
	for _, p := range s.Points {
		m.AddRow(6,
			g.cellCol(4, fmt.Sprintf("%d", p.Frames)),
			g.cellCol(4, fmt.Sprintf("%d", p.Faults)),
			g.cellCol(4, g.FormatPercent(p.HitRate)),
		)
	}
	for _, a := range s.Anomalies {
		m.AddRow(6,
			text.NewCol(12, fmt.Sprintf("Belady anomaly: %d -> %d frames, faults %d -> %d",
				a.FromFrames, a.ToFrames, a.FromFaults, a.ToFaults),
				props.Text{Size: 9, Style: fontstyle.Bold, Color: dangerColor}),
		)
	}
}

// addParagraphs выводит многострочный текст; высота строки растёт с длиной абзаца
func (g *PDFGenerator) addParagraphs(m core.Maroto, body string) {
	for _, p := range strings.Split(body, "\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			m.AddRow(3)
			continue
		}
		m.AddRow(float64(5*(len(p)/charsPerLine+1)),
			text.NewCol(12, p, normalStyle),
		)
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *Data) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by %s | %s", g.GetCompany(data), g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
