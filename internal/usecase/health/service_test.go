package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name       string
		index      error
		store      error
		wantStatus Status
		wantIndex  CheckResult
		wantStore  CheckResult
	}{
		{"all healthy", nil, nil, Healthy, CheckOK, CheckOK},
		{"store down", nil, down, Degraded, CheckOK, CheckError},
		{"index down", down, nil, Unhealthy, CheckError, CheckOK},
		{"both down", down, down, Unhealthy, CheckError, CheckError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.index}, &mockPinger{err: tc.store})
			r := svc.Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("expected %q, got %q", tc.wantStatus, r.Status)
			}
			if r.Checks["index"] != tc.wantIndex {
				t.Errorf("expected index %q, got %q", tc.wantIndex, r.Checks["index"])
			}
			if r.Checks["store"] != tc.wantStore {
				t.Errorf("expected store %q, got %q", tc.wantStore, r.Checks["store"])
			}
		})
	}
}

func TestCheck_NoStore(t *testing.T) {
	svc := New(&mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["store"]; ok {
		t.Error("store check should be absent when store is nil")
	}
}
