// Package respond writes the JSON envelopes returned by every endpoint.
package respond

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// FieldError is a single failed input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationBody struct {
	Errors []FieldError `json:"errors"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Success writes {"status":"success","message":...,"data":...}.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, envelope{Status: "success", Message: message, Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{
		Status:     http.StatusText(status),
		Message:    message,
		StatusCode: status,
	})
}

// Validation writes a 422 listing every failed field.
func Validation(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusUnprocessableEntity, validationBody{Errors: errs})
}
