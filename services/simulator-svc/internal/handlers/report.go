package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"pagesim/pkg/apperror"
	"pagesim/pkg/logger"
	"pagesim/services/simulator-svc/internal/service"
)

// ReportHandler обработчики отчётов
type ReportHandler struct {
	svc *service.SimulatorService
}

// NewReportHandler создаёт handler
func NewReportHandler(svc *service.SimulatorService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Generate строит отчёт по телу запроса
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req service.ExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.export(w, r, req)
}

// SessionReport строит отчёт по текущему прогону сессии.
// Параметры: format, title, comparison, sweep, analysis.
func (h *ReportHandler) SessionReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ExportRequest{
		SessionID: r.PathValue("id"),
		Format:    q.Get("format"),
		Title:     q.Get("title"),
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"comparison", &req.IncludeComparison},
		{"sweep", &req.IncludeSweep},
		{"analysis", &req.IncludeAnalysis},
	}
	for _, f := range flags {
		v, err := queryBool(q.Get(f.name), f.name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		*f.dst = v
	}

	h.export(w, r, req)
}

func (h *ReportHandler) export(w http.ResponseWriter, r *http.Request, req service.ExportRequest) {
	rep, err := h.svc.ExportReport(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", rep.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.Content)))
	w.Header().Set("X-Report-ID", rep.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rep.Content); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write report", "report_id", rep.ID, "error", err)
	}
}

func queryBool(v, field string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("%s must be a boolean", field), field)
	}
	return b, nil
}
