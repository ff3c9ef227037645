// Package report renders simulation traces into downloadable documents.
//
// Every format implements Generator. The text format reproduces the plain
// summary layout users already know; the others (CSV, Markdown, JSON, HTML,
// Excel, PDF) carry the same data with format-specific extras such as the
// cumulative-fault chart in the Excel workbook.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"pagesim/pkg/apperror"
	"pagesim/pkg/config"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

// Format - формат отчёта
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatExcel    Format = "excel"
	FormatPDF      Format = "pdf"
)

// Formats все поддерживаемые форматы
func Formats() []Format {
	return []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON, FormatHTML, FormatExcel, FormatPDF}
}

// ParseFormat разбирает имя формата, допускаются расширения файлов
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperror.NewWithField(apperror.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported report format %q", s), "format")
	}
}

// Extension расширение файла без точки
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	case FormatExcel:
		return "xlsx"
	default:
		return string(f)
	}
}

// ContentType MIME тип для HTTP ответа
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Options параметры оформления
type Options struct {
	Title       string
	Author      string
	Company     string
	Description string

	// MaxSteps ограничивает таблицу шагов; 0 - без ограничения
	MaxSteps int
}

// OptionsFromConfig заполняет параметры из секции report
func OptionsFromConfig(cfg config.ReportConfig) Options {
	return Options{
		Author:   cfg.Author,
		Company:  cfg.CompanyName,
		MaxSteps: cfg.MaxStepsInTable,
	}
}

// Data данные для генерации отчёта
type Data struct {
	ID     string
	Result *trace.SimulationResult

	// Comparison и Sweep необязательны
	Comparison *trace.Comparison
	Sweep      *trace.Sweep

	// Explanation текстовый разбор прогона, если он был запрошен
	Explanation string

	Options     Options
	GeneratedAt time.Time
}

// NewData готовит данные отчёта с новым идентификатором
func NewData(result *trace.SimulationResult, opts Options) *Data {
	return &Data{
		ID:          NewID(),
		Result:      result,
		Options:     opts,
		GeneratedAt: time.Now().UTC(),
	}
}

// NewID сортируемый по времени идентификатор отчёта
func NewID() string {
	return ulid.Make().String()
}

// FileName имя файла в виде page-fault-simulation-<ALGO>-<id>.<ext>
func FileName(data *Data, f Format) string {
	algo := "UNKNOWN"
	if data != nil && data.Result != nil {
		algo = data.Result.Algorithm.String()
	}
	id := ""
	if data != nil {
		id = data.ID
	}
	if id == "" {
		id = NewID()
	}
	return fmt.Sprintf("page-fault-simulation-%s-%s.%s", algo, id, f.Extension())
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *Data) ([]byte, error)
	Format() Format
}

// New возвращает генератор формата
func New(f Format, cfg config.ReportConfig) (Generator, error) {
	switch f {
	case FormatText:
		return NewTextGenerator(), nil
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatMarkdown:
		return NewMarkdownGenerator(), nil
	case FormatJSON:
		return NewJSONGenerator(), nil
	case FormatHTML:
		return NewHTMLGenerator(), nil
	case FormatExcel:
		return NewExcelGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(cfg.PDF), nil
	default:
		return nil, apperror.NewWithField(apperror.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported report format %q", f), "format")
	}
}

// validate проверяет наличие трассы
func validate(data *Data) error {
	if data == nil || data.Result == nil {
		return apperror.New(apperror.CodeNilInput, "report data has no simulation result")
	}
	return nil
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *Data) string {
	if data.Options.Title != "" {
		return data.Options.Title
	}
	return "Page Fault Simulation Summary"
}

// GetAuthor возвращает автора отчёта
func (b *BaseGenerator) GetAuthor(data *Data) string {
	if data.Options.Author != "" {
		return data.Options.Author
	}
	return "pagesim"
}

// GetCompany возвращает подпись в футере
func (b *BaseGenerator) GetCompany(data *Data) string {
	if data.Options.Company != "" {
		return data.Options.Company
	}
	return "Page Replacement Simulator"
}

// AlgorithmName полное имя алгоритма
func (b *BaseGenerator) AlgorithmName(data *Data) string {
	return policy.DisplayName(data.Result.Algorithm)
}

// Steps шаги для таблицы и число отброшенных ограничением MaxSteps
func (b *BaseGenerator) Steps(data *Data) ([]trace.StepRecord, int) {
	steps := data.Result.Steps
	if limit := data.Options.MaxSteps; limit > 0 && len(steps) > limit {
		return steps[:limit], len(steps) - limit
	}
	return steps, 0
}

// GeneratedAt время генерации
func (b *BaseGenerator) GeneratedAt(data *Data) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return data.GeneratedAt
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует долю как процент
func (b *BaseGenerator) FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatReferences список обращений в виде [7, 0, 1]
func (b *BaseGenerator) FormatReferences(refs []int) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatReplaced вытесненная страница или "-"
func (b *BaseGenerator) FormatReplaced(s trace.StepRecord) string {
	if !s.Evicted() {
		return "-"
	}
	return fmt.Sprintf("%d", s.ReplacedPage)
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// CellByIndex возвращает адрес ячейки по индексам
func CellByIndex(colIndex, rowIndex int) string {
	return fmt.Sprintf("%s%d", ColName(colIndex), rowIndex)
}
