package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageResponse is the body of clear-cache replies and of every error.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is a MessageResponse that may carry extra hints.
type ErrorResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// JSON writes value with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.WarnContext(r.Context(), "write json response", "err", err, "request_id", RequestIDFrom(r))
	}
}

func JSONMessage(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: message})
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, ErrorResponse{Success: false, Message: message})
}
