package httpx

import (
	"net/http"

	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// StatusCode maps an operation status class onto an HTTP status code.
func StatusCode(status shared.Status) int {
	switch status {
	case shared.StatusOK:
		return http.StatusOK
	case shared.StatusUnauthorized:
		return http.StatusUnauthorized
	case shared.StatusForbidden:
		return http.StatusForbidden
	case shared.StatusValidationFailed:
		return http.StatusBadRequest
	case shared.StatusConflict:
		return http.StatusConflict
	case shared.StatusNotFound:
		return http.StatusNotFound
	case shared.StatusUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondResult writes an operation result as JSON with the mapped code.
func RespondResult(w http.ResponseWriter, result shared.OpResult) {
	JSON(w, StatusCode(result.Status), result)
}
