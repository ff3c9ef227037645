package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"pagesim/services/simulator-svc/internal/policy"
)

// HTMLGenerator генератор HTML отчётов
type HTMLGenerator struct {
	BaseGenerator
	tmpl *template.Template
}

// NewHTMLGenerator создаёт новый генератор
func NewHTMLGenerator() *HTMLGenerator {
	g := &HTMLGenerator{}
	g.tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
		"formatPercent": g.FormatPercent,
		"frame": func(p int) string {
			if p == policy.EmptySlot {
				return "Empty"
			}
			return fmt.Sprintf("%d", p)
		},
		"isEmpty": func(p int) bool { return p == policy.EmptySlot },
	}).Parse(htmlTemplate))
	return g
}

// Format возвращает формат генератора
func (g *HTMLGenerator) Format() Format {
	return FormatHTML
}

// Generate генерирует HTML отчёт
func (g *HTMLGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	steps, omitted := g.Steps(data)
	templateData := map[string]any{
		"Title":       g.GetTitle(data),
		"Author":      g.GetAuthor(data),
		"Company":     g.GetCompany(data),
		"Description": data.Options.Description,
		"Generated":   g.FormatTimestamp(g.GeneratedAt(data)),
		"Algorithm":   g.AlgorithmName(data),
		"References":  g.FormatReferences(data.Result.ReferenceSequence),
		"Result":      data.Result,
		"HitRate":     g.FormatPercent(data.Result.HitRate()),
		"Steps":       steps,
		"Omitted":     omitted,
		"Comparison":  data.Comparison,
		"Sweep":       data.Sweep,
		"Explanation": data.Explanation,
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, templateData); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            border-radius: 8px;
            padding: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
        h2 { color: #34495e; border-bottom: 1px solid #ecf0f1; padding-bottom: 8px; margin-top: 30px; }
        .meta { color: #7f8c8d; font-size: 0.9em; margin-bottom: 20px; }
        .metric-box {
            display: inline-block;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 15px 25px;
            border-radius: 8px;
            margin: 5px;
            min-width: 150px;
        }
        .metric-box .label { font-size: 0.85em; opacity: 0.9; }
        .metric-box .value { font-size: 1.8em; font-weight: bold; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ecf0f1; }
        th { background: #3498db; color: white; font-weight: 500; }
        tr:nth-child(even) { background: #f8f9fa; }
        .hit { color: #27ae60; font-weight: bold; }
        .fault { color: #e74c3c; font-weight: bold; }
        .frame { display: inline-block; min-width: 2.2em; padding: 2px 6px; margin-right: 4px; border: 1px solid #bdc3c7; border-radius: 4px; text-align: center; }
        .frame.empty { color: #bdc3c7; }
        .analysis { background: #f0f7ff; border-left: 4px solid #3498db; padding: 15px; white-space: pre-wrap; }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #ecf0f1;
            color: #7f8c8d;
            font-size: 0.85em;
            text-align: center;
        }
    </style>
</head>
<body>
<div class="container">
    <h1>{{.Title}}</h1>
    <div class="meta">
        <p><strong>Author:</strong> {{.Author}} | <strong>Generated:</strong> {{.Generated}}</p>
        {{if .Description}}<p>{{.Description}}</p>{{end}}
        <p><strong>Algorithm:</strong> {{.Algorithm}} | <strong>Frames:</strong> {{.Result.FrameCount}} | <strong>Reference String:</strong> {{.References}}</p>
    </div>

    <h2>Performance Metrics</h2>
    <div>
        <div class="metric-box"><div class="label">Page Faults</div><div class="value">{{.Result.TotalFaults}}</div></div>
        <div class="metric-box"><div class="label">Page Hits</div><div class="value">{{.Result.TotalHits}}</div></div>
        <div class="metric-box"><div class="label">Hit Rate</div><div class="value">{{.HitRate}}</div></div>
    </div>

    <h2>Step-by-Step Execution</h2>
    <table>
        <thead>
            <tr><th>Step</th><th>Page</th><th>Result</th><th>Frames After</th><th>Explanation</th></tr>
        </thead>
        <tbody>
        {{range .Steps}}
            <tr>
                <td>{{.StepNumber}}</td>
                <td>{{.Page}}</td>
                <td class="{{if .IsHit}}hit{{else}}fault{{end}}">{{.Outcome}}</td>
                <td>{{range .FramesAfter}}<span class="frame{{if isEmpty .}} empty{{end}}">{{frame .}}</span>{{end}}</td>
                <td>{{.Explanation}}</td>
            </tr>
        {{end}}
        </tbody>
    </table>
    {{if .Omitted}}<p class="meta">{{.Omitted}} more steps omitted</p>{{end}}

    {{if .Comparison}}
    <h2>Algorithm Comparison</h2>
    <table>
        <thead>
            <tr><th>Rank</th><th>Algorithm</th><th>Faults</th><th>Hits</th><th>Hit Rate</th><th>Gap To Optimal</th></tr>
        </thead>
        <tbody>
        {{range .Comparison.Entries}}
            <tr>
                <td>{{.Rank}}</td>
                <td>{{.Name}}</td>
                <td>{{.Faults}}</td>
                <td>{{.Hits}}</td>
                <td>{{formatPercent .HitRate}}</td>
                <td>{{.GapToOptimal}}</td>
            </tr>
        {{end}}
        </tbody>
    </table>
    {{end}}

    {{if .Sweep}}
    <h2>Capacity Sweep ({{.Sweep.Algorithm}})</h2>
    <table>
        <thead><tr><th>Frames</th><th>Faults</th><th>Hit Rate</th></tr></thead>
        <tbody>
        {{range .Sweep.Points}}
            <tr><td>{{.Frames}}</td><td>{{.Faults}}</td><td>{{formatPercent .HitRate}}</td></tr>
        {{end}}
        </tbody>
    </table>
    {{range .Sweep.Anomalies}}
    <p class="fault">Belady anomaly: {{.FromFrames}} → {{.ToFrames}} frames, faults {{.FromFaults}} → {{.ToFaults}}</p>
    {{end}}
    {{end}}

    {{if .Explanation}}
    <h2>Analysis</h2>
    <div class="analysis">{{.Explanation}}</div>
    {{end}}

    <div class="footer">
        <p>Generated by {{.Company}} | {{.Generated}}</p>
    </div>
</div>
</body>
</html>`
