package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"uitvaartpay/internal/domain"
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
		log.Printf("[HTTP] write response error: %v", err)
	}
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessCreated(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusCreated)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

// EngineError maps the engine's error taxonomy onto HTTP statuses. Rail
// failures come back as 502 so callers know to retry; validation failures
// never reached a rail and are safe to correct and resend.
func EngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrRefundNotFound),
		errors.Is(err, domain.ErrDisputeNotFound):
		ErrorNotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidRefundReason),
		errors.Is(err, domain.ErrInvalidSplitConfiguration),
		errors.Is(err, domain.ErrWebhookSignatureInvalid):
		ErrorBadRequest(w, err.Error())
	case errors.Is(err, domain.ErrNonRefundable),
		errors.Is(err, domain.ErrRefundExceedsBalance),
		errors.Is(err, domain.ErrDisputeAlreadyOpen),
		errors.Is(err, domain.ErrInvalidTransition):
		Error(w, err.Error(), 422, http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrVersionConflict):
		Error(w, err.Error(), 409, http.StatusConflict)
	case domain.IsRailError(err):
		Error(w, err.Error(), 502, http.StatusBadGateway)
	default:
		ErrorInternal(w, "internal error")
	}
}
