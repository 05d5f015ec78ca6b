package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "Registration successful", map[string]string{"k": "v"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "success", body["status"])
	require.Equal(t, "Registration successful", body["message"])
	require.Equal(t, map[string]any{"k": "v"}, body["data"])
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusForbidden, "You do not belong to this organization")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t,
		`{"status":"Forbidden","message":"You do not belong to this organization","statusCode":403}`,
		rec.Body.String())
}

func TestValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	Validation(rec, []FieldError{{Field: "email", Message: "email is required"}})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"errors":[{"field":"email","message":"email is required"}]}`, rec.Body.String())
}
