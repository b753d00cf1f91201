package preference

import (
	"context"
	"sync"

	"github.com/kailas-cloud/relevex/internal/domain/preference"
)

type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.getFn(ctx, key)
}

type mockReader struct {
	mu    sync.Mutex
	prefs preference.Preferences
	err   error
	calls int
}

func (m *mockReader) Get(_ context.Context, userID, _ string) (preference.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return preference.Preferences{}, m.err
	}
	if m.prefs.UserID() == "" {
		return preference.Empty(userID), nil
	}
	return m.prefs, nil
}

func (m *mockReader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
