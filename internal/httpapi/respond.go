// Package httpapi exposes the pipeline's read and administrative surface
// over HTTP, grounded on XavierBriggs-Services/api-gateway's handler
// conventions (respondJSON/respondError, parseIntParam) and its
// chi-router/middleware-chain main.go.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/boompicks/pickengine/internal/domain"
)

// ErrorResponse is the JSON body returned for any non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondPipelineError maps a PipelineError's code to an HTTP status, falling
// back to 500 for anything it doesn't otherwise recognize.
func respondPipelineError(w http.ResponseWriter, err error) {
	pe, ok := err.(*domain.PipelineError)
	if !ok {
		respondError(w, http.StatusInternalServerError, err.Error(), err)
		return
	}
	switch pe.Code {
	case domain.CodeInputValidation:
		respondError(w, http.StatusBadRequest, pe.Message, pe.Cause)
	case domain.CodeLockUnavailable:
		respondError(w, http.StatusConflict, pe.Message, pe.Cause)
	case domain.CodeTransport, domain.CodePersistence:
		respondError(w, http.StatusServiceUnavailable, pe.Message, pe.Cause)
	default:
		respondError(w, http.StatusInternalServerError, pe.Message, pe.Cause)
	}
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
