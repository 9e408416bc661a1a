package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       interface{}
		expectBody string
	}{
		{
			name:       "success with data",
			status:     http.StatusOK,
			data:       map[string]string{"message": "success"},
			expectBody: "success",
		},
		{
			name:       "array",
			status:     http.StatusOK,
			data:       []string{"a", "b", "c"},
			expectBody: `["a","b","c"]`,
		},
		{
			name:   "no content",
			status: http.StatusAccepted,
			data:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectBody == "" {
				assert.Empty(t, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), tt.expectBody)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid input"}`, rr.Body.String())
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      apperror.NotFound("product", 7),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"product 7 not found"}`,
		},
		{
			name:     "validation",
			err:      apperror.ValidationError("days", "must be positive"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"must be positive","field":"days"}`,
		},
		{
			name:     "conflict",
			err:      apperror.Conflict("already running"),
			wantCode: http.StatusConflict,
			wantBody: `{"error":"already running"}`,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondAppError(rr, tt.err)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
