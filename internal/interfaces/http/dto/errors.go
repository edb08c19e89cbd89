package dto

import (
	"net/http"

	"github.com/boxstock/backend/internal/domain/shared"
)

// Error codes returned to API clients. Domain failures carry their domain
// code unchanged; the remaining codes are produced by the HTTP layer.
const (
	ErrCodeNotFound             = shared.CodeNotFound
	ErrCodeAlreadyExists        = shared.CodeAlreadyExists
	ErrCodeInvalidInput         = shared.CodeInvalidInput
	ErrCodeConcurrencyConflict  = shared.CodeConcurrencyConflict
	ErrCodeOptimisticLock       = shared.CodeOptimisticLockFailed
	ErrCodeForbidden            = shared.CodeForbidden
	ErrCodeInvalidTransition    = shared.CodeInvalidTransition
	ErrCodeInsufficientStock    = shared.CodeInsufficientStock
	ErrCodeInvalidConfiguration = shared.CodeInvalidConfiguration
	ErrCodeWarehouseUnassigned  = shared.CodeWarehouseUnassigned

	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeAlreadyExists:        http.StatusConflict,
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeConcurrencyConflict:  http.StatusConflict,
	ErrCodeOptimisticLock:       http.StatusConflict,
	ErrCodeForbidden:            http.StatusForbidden,
	ErrCodeInvalidTransition:    http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:    http.StatusUnprocessableEntity,
	ErrCodeInvalidConfiguration: http.StatusUnprocessableEntity,
	ErrCodeWarehouseUnassigned:  http.StatusUnprocessableEntity,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
