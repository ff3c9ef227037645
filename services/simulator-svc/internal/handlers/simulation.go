package handlers

import (
	"net/http"

	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/service"
	"pagesim/services/simulator-svc/internal/trace"
)

// SimulationHandler обработчики прогонов без состояния
type SimulationHandler struct {
	svc *service.SimulatorService
}

// NewSimulationHandler создаёт handler
func NewSimulationHandler(svc *service.SimulatorService) *SimulationHandler {
	return &SimulationHandler{svc: svc}
}

// Series ряды для графиков
type Series struct {
	CumulativeFaults []int     `json:"cumulative_faults"`
	HitRate          []float64 `json:"hit_rate"`
}

// SimulationResponse полный прогон с агрегатами
type SimulationResponse struct {
	Summary trace.Summary           `json:"summary"`
	Series  Series                  `json:"series"`
	Result  *trace.SimulationResult `json:"result"`
}

func newSimulationResponse(r *trace.SimulationResult) SimulationResponse {
	return SimulationResponse{
		Summary: r.Summary(),
		Series: Series{
			CumulativeFaults: r.CumulativeFaultSeries(),
			HitRate:          r.HitRateSeries(),
		},
		Result: r,
	}
}

// ComparisonResponse сравнение с лучшим алгоритмом
type ComparisonResponse struct {
	*trace.Comparison
	Best policy.Algorithm `json:"best"`
}

// SweepResponse прогон по ёмкостям
type SweepResponse struct {
	*trace.Sweep
	HasAnomaly bool `json:"has_anomaly"`
}

func (h *SimulationHandler) ListAlgorithms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"algorithms": h.svc.Algorithms()})
}

func (h *SimulationHandler) GetAlgorithm(w http.ResponseWriter, r *http.Request) {
	algo, err := policy.ParseAlgorithm(r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy.GetAlgorithmInfo(algo))
}

func (h *SimulationHandler) ListExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"examples": h.svc.Examples()})
}

func (h *SimulationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Simulate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSimulationResponse(result))
}

func (h *SimulationHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	explanation, err := h.svc.AnalyzeSimulation(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

// FlushResponse итог сброса кэша пояснений
type FlushResponse struct {
	Algorithm string `json:"algorithm,omitempty"`
	Removed   int64  `json:"removed"`
}

// FlushExplanations сбрасывает кэш пояснений; ?algorithm= ограничивает одним алгоритмом
func (h *SimulationHandler) FlushExplanations(w http.ResponseWriter, r *http.Request) {
	algorithm := r.URL.Query().Get("algorithm")
	n, err := h.svc.FlushExplanations(r.Context(), algorithm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FlushResponse{Algorithm: algorithm, Removed: n})
}

func (h *SimulationHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req service.CompareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cmp, err := h.svc.Compare(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ComparisonResponse{Comparison: cmp, Best: cmp.Best()})
}

func (h *SimulationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req service.SweepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sweep, err := h.svc.Sweep(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{Sweep: sweep, HasAnomaly: sweep.HasAnomaly()})
}
