package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"utang-ledger/internal/ledger"
	"utang-ledger/internal/service"
)

type APIResponse struct {
	ErrorCode int         `json:"error_code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

func Response(w http.ResponseWriter, message string, data interface{}, errorCode int, status string, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	response := APIResponse{
		ErrorCode: errorCode,
		Status:    status,
		Message:   message,
		Data:      data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("write response failed", "err", err)
	}
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessCreated(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusCreated)
}

func SuccessAccepted(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusAccepted)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

func ErrorUnauthorized(w http.ResponseWriter, message string) {
	Error(w, message, 401, http.StatusUnauthorized)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorUnprocessable(w http.ResponseWriter, message string) {
	Error(w, message, 422, http.StatusUnprocessableEntity)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

// failed maps a service error onto the envelope. Unknown errors are logged and hidden
// behind fallback.
func (h *Handler) failed(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *service.ValidationError
	var rerr *ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorBadRequest(w, verr.Error())
	case errors.As(err, &rerr):
		ErrorBadRequest(w, rerr.Error())
	case errors.Is(err, service.ErrDebtNotFound),
		errors.Is(err, service.ErrPersonNotFound),
		errors.Is(err, service.ErrExportNotFound):
		ErrorNotFound(w, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrAmountExceedsBalance):
		ErrorUnprocessable(w, err.Error())
	default:
		h.logger.Error(fallback, "method", r.Method, "path", r.URL.Path, "err", err)
		ErrorInternal(w, fallback)
	}
}
