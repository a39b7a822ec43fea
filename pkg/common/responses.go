package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the uniform error response shape
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError sends the uniform error response
func RespondError(w http.ResponseWriter, status int, message, requestID string) {
	RespondJSON(w, status, ErrorBody{
		Error:     message,
		RequestID: requestID,
	})
}
