package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

func TestRespondJSON_SetsContentTypeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"Conflict", http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, map[string]string{"status": "ok"})

			assertStatusCode(t, recorder, tc.statusCode)
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{
			name:       "invalid input",
			err:        fmt.Errorf("%w: descriptor is required", facematch.ErrInvalidInput),
			statusCode: http.StatusBadRequest,
			message:    "invalid input: descriptor is required",
		},
		{
			name:       "store failure",
			err:        errors.New("dial tcp: connection refused"),
			statusCode: http.StatusInternalServerError,
			message:    errInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondServiceError(recorder, "testing", tc.err)

			assertStatusCode(t, recorder, tc.statusCode)
			assertJSONError(t, recorder, tc.message)
		})
	}
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", constants.MaxRequestBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/api/v1/face/check", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()

	var dst FaceRequest
	if err := decodeJSON(recorder, req, &dst); err == nil {
		t.Error("expected error for oversized body")
	}
}

func TestDistanceValue(t *testing.T) {
	if distanceValue(math.Inf(1)) != nil {
		t.Error("expected nil for +Inf")
	}
	if distanceValue(math.NaN()) != nil {
		t.Error("expected nil for NaN")
	}
	if d := distanceValue(0.25); d == nil || *d != 0.25 {
		t.Errorf("distanceValue(0.25) = %v", d)
	}

	// An unusable distance must not break encoding.
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusOK, CandidateResponse{Name: "x", Distance: distanceValue(math.Inf(1))})
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := result["distance"]; ok {
		t.Error("expected distance to be omitted")
	}
}

func TestHealthCheck_ReturnsStatusOk(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}
