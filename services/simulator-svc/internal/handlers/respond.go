package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pagesim/pkg/apperror"
	"pagesim/pkg/logger"
)

// ErrorBody тело ответа с ошибкой
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail код и сообщение ошибки
type ErrorDetail struct {
	Code      apperror.ErrorCode `json:"code"`
	Message   string             `json:"message"`
	Field     string             `json:"field,omitempty"`
	Details   map[string]any     `json:"details,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("failed to encode response", "error", err)
	}
}

// writeError переводит ошибку приложения в HTTP статус и JSON тело
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	detail := ErrorDetail{
		Code:      apperror.Code(err),
		Message:   err.Error(),
		RequestID: RequestIDFromContext(r.Context()),
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		detail.Message = appErr.Message
		detail.Field = appErr.Field
		if len(appErr.Details) > 0 {
			detail.Details = appErr.Details
		}
	}

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "status", status)
		if detail.Code == apperror.CodeInternal {
			detail.Message = "internal error"
		}
	} else {
		log.Debug("request rejected", "error", err, "status", status)
	}

	writeJSON(w, status, ErrorBody{Error: detail})
}

// decodeJSON читает тело запроса. Пустое тело оставляет v без изменений.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.New(apperror.CodeInvalidArgument,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperror.Wrap(err, apperror.CodeInvalidArgument, "malformed JSON body")
}
