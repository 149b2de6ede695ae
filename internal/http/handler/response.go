package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

// WriteFieldErrors writes a validation failure with one message per field.
func WriteFieldErrors(w http.ResponseWriter, status int, fields map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    "INVALID_INPUT",
			Message: "invalid input",
			Fields:  fields,
		},
	})
}

// WantsJSON reports whether the client asked for the JSON rendition of a page.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
