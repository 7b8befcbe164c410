package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/tractorstats/tractor-stats/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad decks value", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_Statuses(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"invalid input": {fmt.Errorf("%w: x", usecase.ErrInvalidInput), http.StatusBadRequest},
		"not found":     {fmt.Errorf("%w: x", usecase.ErrNotFound), http.StatusNotFound},
		"unauthorized":  {fmt.Errorf("%w: x", usecase.ErrUnauthorized), http.StatusUnauthorized},
		"unavailable":   {fmt.Errorf("%w: x", usecase.ErrDependencyUnavailable), http.StatusServiceUnavailable},
		"unknown":       {fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		mapped := mapError(context.Background(), tc.err)
		if mapped.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", name, tc.status, mapped.HTTPStatus)
		}
	}
}
