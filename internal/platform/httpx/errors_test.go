package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quipu-ledger/quipu/internal/shared"
)

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.Validation(errors.New("bad input")), http.StatusBadRequest},
		{"not found", shared.NotFound(errors.New("missing")), http.StatusNotFound},
		{"concurrency", shared.Concurrency(errors.New("conflict")), http.StatusConflict},
		{"configuration", shared.Configuration(errors.New("no fx rate")), http.StatusUnprocessableEntity},
		{"integrity", shared.Integrity(errors.New("desync")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var problem ProblemDetail
			if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
				t.Fatalf("invalid problem body: %v", err)
			}
			if problem.Status != tc.status {
				t.Fatalf("problem status %d != %d", problem.Status, tc.status)
			}
		})
	}
}

func TestUnknownErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("secret internals"))
	var problem ProblemDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("invalid problem body: %v", err)
	}
	if problem.Detail != "" {
		t.Fatalf("unknown errors must not leak detail, got %q", problem.Detail)
	}
}
