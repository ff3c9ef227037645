package handlers

import (
	"net/http"
	"strconv"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/service"
)

// SessionHandler обработчики пошагового просмотра
type SessionHandler struct {
	svc *service.SimulatorService
}

// NewSessionHandler создаёт handler
func NewSessionHandler(svc *service.SimulatorService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// JumpRequest переход к шагу
type JumpRequest struct {
	Index *int `json:"index"`
}

// PlayRequest скорость проигрывания; 0 - скорость по умолчанию
type PlayRequest struct {
	Speed int `json:"speed"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.svc.CreateSession(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", apiPrefix+"/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.svc.GetSession(r.Context(), r.PathValue("id")))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r)(h.svc.RunSession(r.Context(), r.PathValue("id"), req))
}

func (h *SessionHandler) StepForward(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.svc.StepForward(r.Context(), r.PathValue("id")))
}

func (h *SessionHandler) StepBack(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.svc.StepBack(r.Context(), r.PathValue("id")))
}

func (h *SessionHandler) Jump(w http.ResponseWriter, r *http.Request) {
	var req JumpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Index == nil {
		writeError(w, r, apperror.NewWithField(apperror.CodeInvalidArgument, "index is required", "index"))
		return
	}
	h.respond(w, r)(h.svc.Jump(r.Context(), r.PathValue("id"), *req.Index))
}

func (h *SessionHandler) Play(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r)(h.svc.Play(r.Context(), r.PathValue("id"), req.Speed))
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.svc.Pause(r.Context(), r.PathValue("id")))
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.svc.Reset(r.Context(), r.PathValue("id")))
}

func (h *SessionHandler) Explain(w http.ResponseWriter, r *http.Request) {
	explanation, err := h.svc.ExplainStep(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (h *SessionHandler) CompareWithOptimal(w http.ResponseWriter, r *http.Request) {
	explanation, err := h.svc.CompareWithOptimal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

// respond пишет снимок сессии или ошибку
func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request) func(service.SessionView, error) {
	return func(view service.SessionView, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// Activity журнал действий над сессией. Параметр limit оставляет последние записи.
func (h *SessionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, apperror.NewWithField(apperror.CodeInvalidArgument, "limit must be a non-negative integer", "limit"))
			return
		}
		limit = n
	}

	entries, err := h.svc.SessionActivity(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
