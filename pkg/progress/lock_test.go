package progress

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/cerebro/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, profile *domain.Profile) error { return nil }
func (m *MockStore) Load(ctx context.Context, profileID string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}
func (m *MockStore) Delete(ctx context.Context, profileID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		pid := fmt.Sprintf("profile-%d", i)
		_, _ = mgr.Update(ctx, pid, func(*domain.Profile) error { return nil })
		_ = mgr.Delete(ctx, pid)
	}

	lockCount := len(mgr.locks)
	t.Logf("Profiles touched: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
