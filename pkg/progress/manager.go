package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a profile.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates profile access, ensuring safe concurrent updates.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.ProfileStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new profile Manager with the given persistence store.
func NewManager(store ports.ProfileStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(profileID) after unlocking.
func (m *Manager) acquire(profileID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[profileID]
	if !exists {
		entry = &lockEntry{}
		m.locks[profileID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(profileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[profileID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, profileID)
	}
}

// Load retrieves an existing profile from the store.
func (m *Manager) Load(ctx context.Context, profileID string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := m.WithLock(ctx, profileID, func(ctx context.Context) error {
		var err error
		profile, err = m.store.Load(ctx, profileID)
		return err
	})
	return profile, err
}

// LoadOrCreate tries to load a profile. If not found, it initializes a new one.
func (m *Manager) LoadOrCreate(ctx context.Context, profileID, name string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := m.WithLock(ctx, profileID, func(ctx context.Context) error {
		var err error
		profile, err = m.store.Load(ctx, profileID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return fmt.Errorf("failed to check profile existence: %w", err)
		}

		// Not found, create new
		profile = domain.NewProfile(profileID, name)
		if err := m.store.Save(ctx, profile); err != nil {
			return fmt.Errorf("failed to initialize profile: %w", err)
		}
		return nil
	})
	return profile, err
}

// Update runs a read-modify-write cycle on a profile. Missing profiles start
// from domain.NewProfile. Nothing is saved if fn fails.
func (m *Manager) Update(ctx context.Context, profileID string, fn func(*domain.Profile) error) (*domain.Profile, error) {
	var profile *domain.Profile
	err := m.WithLock(ctx, profileID, func(ctx context.Context) error {
		p, err := m.loadOrNew(ctx, profileID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := m.store.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		profile = p
		return nil
	})
	return profile, err
}

// Delete removes the profile from the store.
func (m *Manager) Delete(ctx context.Context, profileID string) error {
	return m.WithLock(ctx, profileID, func(ctx context.Context) error {
		return m.store.Delete(ctx, profileID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying profile store.
func (m *Manager) Store() ports.ProfileStore {
	return m.store
}

// WithLock executes a function while holding the lock for the profile.
func (m *Manager) WithLock(ctx context.Context, profileID string, fn func(context.Context) error) error {
	entry := m.acquire(profileID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(profileID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "profile:"+profileID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"profile_id", profileID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) loadOrNew(ctx context.Context, profileID string) (*domain.Profile, error) {
	p, err := m.store.Load(ctx, profileID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return domain.NewProfile(profileID, ""), nil
}
