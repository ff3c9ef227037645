package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"pagesim/pkg/apperror"
	"pagesim/pkg/audit"
	"pagesim/pkg/logger"
	"pagesim/pkg/telemetry"
	"pagesim/services/simulator-svc/internal/report"
	"pagesim/services/simulator-svc/internal/trace"
)

// ExportRequest запрос отчёта: по сессии или по входным данным прогона
type ExportRequest struct {
	SessionID   string           `json:"session_id,omitempty"`
	Simulation  *SimulateRequest `json:"simulation,omitempty"`
	Format      string           `json:"format"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`

	IncludeComparison bool `json:"include_comparison,omitempty"`
	IncludeSweep      bool `json:"include_sweep,omitempty"`

	// IncludeAnalysis запрашивает разбор у генератора текста; его недоступность не мешает отчёту
	IncludeAnalysis bool `json:"include_analysis,omitempty"`
}

// Report готовый файл отчёта
type Report struct {
	ID          string        `json:"id"`
	Format      report.Format `json:"format"`
	FileName    string        `json:"file_name"`
	ContentType string        `json:"content_type"`
	Content     []byte        `json:"-"`
}

// ExportReport строит отчёт в запрошенном формате
func (s *SimulatorService) ExportReport(ctx context.Context, req ExportRequest) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.ExportReport")
	defer span.End()

	name := req.Format
	if strings.TrimSpace(name) == "" {
		name = s.cfg.Report.DefaultFormat
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordReport("unknown", false, 0)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrReportFormat, string(format)))

	result, err := s.reportSource(ctx, req)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordReport(string(format), false, 0)
		return nil, err
	}

	opts := report.OptionsFromConfig(s.cfg.Report)
	if req.Title != "" {
		opts.Title = req.Title
	}
	if req.Description != "" {
		opts.Description = req.Description
	}

	data := report.NewData(result, opts)

	if req.IncludeComparison {
		if data.Comparison, err = trace.Compare(result.ReferenceSequence, result.FrameCount); err != nil {
			telemetry.SetError(ctx, err)
			s.recordReport(string(format), false, 0)
			return nil, err
		}
	}
	if req.IncludeSweep {
		if data.Sweep, err = s.sweepFor(result); err != nil {
			telemetry.SetError(ctx, err)
			s.recordReport(string(format), false, 0)
			return nil, err
		}
	}
	if req.IncludeAnalysis {
		if analysis, err := s.analyze(ctx, result); err == nil {
			data.Explanation = analysis.Text
		} else {
			logger.Log.Warn("report analysis skipped", "error", err)
		}
	}

	gen, err := report.New(format, s.cfg.Report)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordReport(string(format), false, 0)
		return nil, err
	}

	content, err := gen.Generate(ctx, data)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordReport(string(format), false, 0)
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to generate report")
	}

	span.SetAttributes(attribute.Int(telemetry.AttrReportBytes, len(content)))
	s.recordReport(string(format), true, len(content))
	if req.SessionID != "" {
		s.journal(ctx, audit.NewEntry(audit.ActionExport).
			Session(req.SessionID).
			Meta("format", string(format)).
			Meta("bytes", len(content)), nil)
	}

	rep := &Report{
		ID:          data.ID,
		Format:      format,
		FileName:    report.FileName(data, format),
		ContentType: format.ContentType(),
		Content:     content,
	}
	logger.WithAlgorithm(result.Algorithm.String(), result.FrameCount).Info("report generated",
		"format", string(format),
		"file", rep.FileName,
		"bytes", len(content),
	)
	return rep, nil
}

// reportSource трасса из сессии либо новый прогон
func (s *SimulatorService) reportSource(ctx context.Context, req ExportRequest) (*trace.SimulationResult, error) {
	if req.SessionID != "" {
		e, err := s.sessions.Get(req.SessionID)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		result := e.session.Result()
		e.mu.Unlock()

		if result == nil {
			return nil, apperror.New(apperror.CodeNoSimulation, "session has no simulation to export")
		}
		return result, nil
	}

	if req.Simulation == nil {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			"either session_id or simulation is required", "simulation")
	}
	return s.Simulate(ctx, *req.Simulation)
}

// sweepFor развёртка от минимальной ёмкости до ёмкости прогона (не меньше максимума формы)
func (s *SimulatorService) sweepFor(result *trace.SimulationResult) (*trace.Sweep, error) {
	lo := s.cfg.Simulation.MinFrames
	if lo < 1 {
		lo = 1
	}
	hi := s.cfg.Simulation.MaxFrames
	if result.FrameCount > hi {
		hi = result.FrameCount
	}
	sweep, err := trace.SweepCapacity(result.Algorithm, result.ReferenceSequence, lo, hi)
	if err == nil && s.metrics != nil {
		s.metrics.RecordBeladyAnomalies(result.Algorithm.String(), len(sweep.Anomalies))
	}
	return sweep, err
}

func (s *SimulatorService) recordReport(format string, success bool, size int) {
	if s.metrics != nil {
		s.metrics.RecordReport(format, success, size)
	}
}
