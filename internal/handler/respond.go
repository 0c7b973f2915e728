package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"dalada-backend/internal/service"
	"dalada-backend/internal/util"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

func respondWithJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, statusCode int, err error, message string) {
	logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	respondWithJSON(w, logger, statusCode, errorResponse(err, message))
}

// respondServiceError maps a service error onto the HTTP surface. Throttle
// rejections additionally carry a Retry-After header and a retryAfterSec
// payload.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, message string) {
	var throttle *service.ThrottleError
	if errors.As(err, &throttle) {
		w.Header().Set("Retry-After", strconv.Itoa(throttle.RetryAfterSec))
		logger.Warn("HTTP error response",
			util.ErrorField(err),
			util.Int("status_code", http.StatusTooManyRequests),
			util.String("message", message),
		)
		resp := errorResponse(err, message)
		resp.Data = map[string]int{"retryAfterSec": throttle.RetryAfterSec}
		respondWithJSON(w, logger, http.StatusTooManyRequests, resp)
		return
	}
	respondWithError(w, logger, getStatusCode(err), err, message)
}

// getStatusCode determines the appropriate HTTP status code for an error
func getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrExpiredCode),
		errors.Is(err, service.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
