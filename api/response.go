package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"citipulse/log"

	"go.uber.org/zap"
)

// ErrorCode is a string type for consistent error codes
type ErrorCode string

const (
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeResourceNotFound    ErrorCode = "resource_not_found"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeInvalidFormat       ErrorCode = "invalid_format"
)

type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details any, statusCode int) APIError {
	return APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// RespondWithError writes apiErr as JSON with its status code
func RespondWithError(w http.ResponseWriter, apiErr APIError) {
	RespondWithJSON(w, apiErr.StatusCode, apiErr)
}

// RespondWithJSON writes payload as JSON with the given status code
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.GetInstance().Error("Failed to encode JSON response", zap.Error(err))
	}
}
