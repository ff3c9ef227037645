package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"pagesim/pkg/apperror"
	"pagesim/pkg/config"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

var textbook = []int{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2}

func testData(t *testing.T, algo string) *Data {
	t.Helper()
	result, err := trace.Build(algo, textbook, 3)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	data := NewData(result, Options{Author: "Tester"})
	data.GeneratedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return data
}

func withComparison(t *testing.T, data *Data) *Data {
	t.Helper()
	cmp, err := trace.Compare(textbook, 3)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	sweep, err := trace.SweepCapacity(policy.FIFO, []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}, 1, 5)
	if err != nil {
		t.Fatalf("SweepCapacity() error = %v", err)
	}
	data.Comparison = cmp
	data.Sweep = sweep
	return data
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"text", FormatText},
		{"TXT", FormatText},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"json", FormatJSON},
		{"html", FormatHTML},
		{"xlsx", FormatExcel},
		{"excel", FormatExcel},
		{" pdf ", FormatPDF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("docx"); !apperror.Is(err, apperror.CodeUnsupportedFormat) {
		t.Errorf("ParseFormat(docx) error = %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestFormat_ExtensionAndContentType(t *testing.T) {
	for _, f := range Formats() {
		if f.Extension() == "" {
			t.Errorf("%s: empty extension", f)
		}
		if f.ContentType() == "application/octet-stream" {
			t.Errorf("%s: generic content type", f)
		}
	}
	if FormatExcel.Extension() != "xlsx" || FormatText.Extension() != "txt" || FormatMarkdown.Extension() != "md" {
		t.Error("unexpected extension mapping")
	}
}

func TestNew_AllFormats(t *testing.T) {
	for _, f := range Formats() {
		g, err := New(f, config.ReportConfig{})
		if err != nil {
			t.Fatalf("New(%s) error = %v", f, err)
		}
		if g.Format() != f {
			t.Errorf("New(%s).Format() = %s", f, g.Format())
		}
	}

	if _, err := New(Format("docx"), config.ReportConfig{}); !apperror.Is(err, apperror.CodeUnsupportedFormat) {
		t.Errorf("New(docx) error = %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestGenerators_RejectMissingResult(t *testing.T) {
	for _, f := range Formats() {
		g, _ := New(f, config.ReportConfig{})
		if _, err := g.Generate(context.Background(), &Data{}); !apperror.Is(err, apperror.CodeNilInput) {
			t.Errorf("%s: error = %v, want NIL_INPUT", f, err)
		}
		if _, err := g.Generate(context.Background(), nil); !apperror.Is(err, apperror.CodeNilInput) {
			t.Errorf("%s: nil data error = %v, want NIL_INPUT", f, err)
		}
	}
}

func TestFileName(t *testing.T) {
	data := testData(t, "LRU")
	name := FileName(data, FormatText)

	if !strings.HasPrefix(name, "page-fault-simulation-LRU-") {
		t.Errorf("FileName() = %q", name)
	}
	if !strings.HasSuffix(name, data.ID+".txt") {
		t.Errorf("FileName() = %q, want suffix %s.txt", name, data.ID)
	}
	if len(data.ID) != 26 {
		t.Errorf("ID %q is not a ULID", data.ID)
	}
}

func TestNewID_Sortable(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()
	if a >= b {
		t.Errorf("ids not increasing: %s >= %s", a, b)
	}
}

func TestTextGenerator_SummaryLayout(t *testing.T) {
	result, err := trace.Build("FIFO", []int{7, 0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}

	out, err := NewTextGenerator().Generate(context.Background(), NewData(result, Options{}))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := "Page Fault Simulation Summary\n" +
		"================================\n\n" +
		"Algorithm: First In First Out\n" +
		"Reference String: [7, 0, 1]\n" +
		"Number of Frames: 3\n" +
		"Total Steps: 3\n\n" +
		"Performance Metrics:\n" +
		"- Page Faults: 3\n" +
		"- Page Hits: 0\n" +
		"- Hit Rate: 0.00%\n\n" +
		"Step-by-Step Execution:\n" +
		"========================\n" +
		"Step 1: Access page 7 - FAULT\n" +
		"  Page Fault! Loaded page 7.\n" +
		"  Frames after: [7, Empty, Empty]\n\n"

	if !strings.HasPrefix(string(out), want) {
		t.Errorf("unexpected text summary:\n%s", out)
	}
	if !strings.Contains(string(out), "Step 3: Access page 1 - FAULT\n") {
		t.Errorf("missing last step:\n%s", out)
	}
}

func TestTextGenerator_HitRateAndLimit(t *testing.T) {
	data := testData(t, "LRU")
	data.Options.MaxSteps = 4

	out, err := NewTextGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)

	if !strings.Contains(s, "- Page Faults: 9\n") || !strings.Contains(s, "- Hit Rate: 30.77%\n") {
		t.Errorf("unexpected metrics:\n%s", s)
	}
	if strings.Contains(s, "Step 5:") {
		t.Error("MaxSteps not applied")
	}
	if !strings.Contains(s, "9 more steps omitted") {
		t.Error("missing omitted marker")
	}
}

func TestCSVGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "FIFO"))

	out, err := NewCSVGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	s := string(out)

	for _, want := range []string{
		"Algorithm,First In First Out",
		"Page Faults,10",
		"Step,Page,Result,Frames Before,Frames After",
		`1,7,FAULT,"[Empty, Empty, Empty]","[7, Empty, Empty]",-,0,1,0,Page Fault! Loaded page 7.`,
		"# Algorithm Comparison",
		"1,Optimal,7,6,46.15%,0",
		"Belady anomaly,3 -> 4 frames,9 -> 10 faults",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("CSV missing %q\n%s", want, s)
		}
	}
}

func TestMarkdownGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "OPTIMAL"))
	data.Explanation = "Optimal looks ahead."

	out, err := NewMarkdownGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	s := string(out)

	for _, want := range []string{
		"# Page Fault Simulation Summary",
		"- **Author:** Tester",
		"- **Generated:** 2025-01-02 03:04:05",
		"| Page Faults | 7 |",
		"| 1 | 7 | FAULT | [7, Empty, Empty] | - |",
		"## Algorithm Comparison",
		"Best algorithm on this input: **Optimal (Belady's Algorithm)** (7 faults)",
		"### Belady Anomalies",
		"## Analysis\n\nOptimal looks ahead.",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Markdown missing %q\n%s", want, s)
		}
	}
}

func TestJSONGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "LRU"))

	out, err := NewJSONGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var got struct {
		Metadata struct {
			ID          string `json:"id"`
			Author      string `json:"author"`
			GeneratedAt string `json:"generated_at"`
		} `json:"metadata"`
		Summary struct {
			TotalFaults int    `json:"total_faults"`
			FinalFrames []*int `json:"final_frames"`
		} `json:"summary"`
		Steps []struct {
			FramesBefore []*int `json:"frames_before"`
		} `json:"steps"`
		Series struct {
			CumulativeFaults []int `json:"cumulative_faults"`
		} `json:"series"`
		Comparison *struct {
			OptimalFaults int `json:"optimal_faults"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if got.Metadata.ID != data.ID || got.Metadata.Author != "Tester" {
		t.Errorf("metadata = %+v", got.Metadata)
	}
	if got.Metadata.GeneratedAt != "2025-01-02T03:04:05Z" {
		t.Errorf("generated_at = %s", got.Metadata.GeneratedAt)
	}
	if got.Summary.TotalFaults != 9 {
		t.Errorf("total_faults = %d, want 9", got.Summary.TotalFaults)
	}
	if len(got.Steps) != len(textbook) {
		t.Fatalf("steps = %d, want %d", len(got.Steps), len(textbook))
	}
	for _, p := range got.Steps[0].FramesBefore {
		if p != nil {
			t.Error("empty slots must encode as null")
		}
	}
	if n := len(got.Series.CumulativeFaults); n != len(textbook) || got.Series.CumulativeFaults[n-1] != 9 {
		t.Errorf("cumulative series = %v", got.Series.CumulativeFaults)
	}
	if got.Comparison == nil || got.Comparison.OptimalFaults != 7 {
		t.Errorf("comparison = %+v", got.Comparison)
	}
}

func TestHTMLGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "MRU"))
	data.Options.Title = "MRU <run>"

	out, err := NewHTMLGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if strings.Contains(s, "<run>") || !strings.Contains(s, "MRU &lt;run&gt;") {
		t.Error("title must be escaped")
	}
	for _, want := range []string{
		`<td class="fault">FAULT</td>`,
		`<span class="frame empty">Empty</span>`,
		"Algorithm Comparison",
		"Belady anomaly: 3 → 4 frames",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestExcelGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "FIFO"))

	out, err := NewExcelGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// XLSX - это ZIP архив
	if len(out) < 4 || !bytes.Equal(out[:2], []byte("PK")) {
		t.Error("result is not a valid XLSX (ZIP) file")
	}
}

func TestExcelGenerator_EmptyTrace(t *testing.T) {
	data := NewData(&trace.SimulationResult{Algorithm: policy.FIFO, FrameCount: 2}, Options{})

	out, err := NewExcelGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out) == 0 {
		t.Error("empty workbook")
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	data := withComparison(t, testData(t, "SECOND_CHANCE"))
	data.Explanation = "Second chance approximates LRU.\n\nIt keeps a reference bit per frame."

	g := NewPDFGenerator(config.PDFConfig{MarginTop: 10, MarginLeft: 10, MarginRight: 10, EnablePageNumbers: true})
	out, err := g.Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("result is not a PDF")
	}
}

func TestBaseGenerator_Helpers(t *testing.T) {
	var b BaseGenerator

	if got := b.FormatPercent(0.5); got != "50.00%" {
		t.Errorf("FormatPercent = %s", got)
	}
	if got := b.FormatReferences([]int{1, 2}); got != "[1, 2]" {
		t.Errorf("FormatReferences = %s", got)
	}
	if got := b.GetTitle(&Data{}); got != "Page Fault Simulation Summary" {
		t.Errorf("GetTitle = %s", got)
	}

	tests := []struct {
		index int
		want  string
	}{
		{0, "A"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"},
	}
	for _, tt := range tests {
		if got := ColName(tt.index); got != tt.want {
			t.Errorf("ColName(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
	if CellByIndex(2, 5) != "C5" {
		t.Error("CellByIndex(2, 5) != C5")
	}
}
