package report

import (
	"context"
	"encoding/json"
	"time"

	"pagesim/services/simulator-svc/internal/trace"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

// JSONReport структура JSON отчёта
type JSONReport struct {
	Metadata    JSONMetadata       `json:"metadata"`
	Summary     trace.Summary      `json:"summary"`
	Steps       []trace.StepRecord `json:"steps"`
	Omitted     int                `json:"omitted_steps,omitempty"`
	Series      JSONSeries         `json:"series"`
	Comparison  *trace.Comparison  `json:"comparison,omitempty"`
	Sweep       *trace.Sweep       `json:"sweep,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
}

type JSONMetadata struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

// JSONSeries ряды для графиков
type JSONSeries struct {
	CumulativeFaults []int     `json:"cumulative_faults"`
	HitRate          []float64 `json:"hit_rate"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	steps, omitted := g.Steps(data)
	report := JSONReport{
		Metadata: JSONMetadata{
			ID:          data.ID,
			Title:       g.GetTitle(data),
			Author:      g.GetAuthor(data),
			Description: data.Options.Description,
			GeneratedAt: g.GeneratedAt(data).Format(time.RFC3339),
			Version:     "1.0",
		},
		Summary: data.Result.Summary(),
		Steps:   steps,
		Omitted: omitted,
		Series: JSONSeries{
			CumulativeFaults: data.Result.CumulativeFaultSeries(),
			HitRate:          data.Result.HitRateSeries(),
		},
		Comparison:  data.Comparison,
		Sweep:       data.Sweep,
		Explanation: data.Explanation,
	}

	return json.MarshalIndent(report, "", "  ")
}
