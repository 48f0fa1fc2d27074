package api

import (
	"encoding/json"
	"net/http"

	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
)

// ErrorResponse wraps an ErrorBody for serialization.
type ErrorResponse struct {
	Error apperrors.ErrorBody `json:"error"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes an AppError into the standard error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.EnsureAppError(err)
	_ = WriteJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.ErrorBody()})
}

// SingleResponse writes a single resource response with a dynamic resource key.
// Example: SingleResponse(w, r, http.StatusOK, "accessory", accessory)
func SingleResponse(w http.ResponseWriter, r *http.Request, status int, key string, resource any) error {
	resp := map[string]any{
		"request_id": GetRequestID(r),
		key:          resource,
	}
	return WriteJSON(w, status, resp)
}

// ListResponse writes a collection response with a dynamic collection key.
func ListResponse(w http.ResponseWriter, r *http.Request, status int, key string, items any) error {
	resp := map[string]any{
		"request_id": GetRequestID(r),
		key:          items,
	}
	return WriteJSON(w, status, resp)
}

// ActionResponse writes a response for non-CRUD action endpoints.
func ActionResponse(w http.ResponseWriter, r *http.Request, status int, result any) error {
	resp := map[string]any{
		"request_id": GetRequestID(r),
		"result":     result,
	}
	return WriteJSON(w, status, resp)
}
