package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	"github.com/kailas-cloud/searchkv/internal/logger"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodeMultipleResults    ErrorCode = "multiple_results"
	CodeInvalidIndex       ErrorCode = "invalid_index"
	CodeInvalidFilter      ErrorCode = "invalid_filter"
	CodeBackendUnavailable ErrorCode = "backend_unavailable"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	multipleResultsHandler,
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrInvalidIndex, http.StatusBadRequest, CodeInvalidIndex),
	sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeInvalidFilter),
	sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, CodeBackendUnavailable),
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Only the sentinel text reaches the client.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// multipleResultsHandler reports the match count alongside the conflict.
func multipleResultsHandler(w http.ResponseWriter, err error) bool {
	var mre *domain.MultipleResultsError
	if !errors.As(err, &mre) {
		return false
	}
	writeJSON(w, http.StatusConflict, map[string]any{
		"code":    CodeMultipleResults,
		"message": domain.ErrMultipleResults.Error(),
		"total":   mre.Total,
	})
	return true
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
