package session

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/leadscout/api/internal/entity"
)

// UserData is the account-scoped working set: the last-used business profile
// and the recent run history.
type UserData struct {
	Profile *entity.ProfileSnapshot
	History []entity.HistoryEntry
}

// Loader resolves the persisted UserData for an account.
type Loader interface {
	LoadUserData(ctx context.Context, userID uuid.UUID) (UserData, error)
}

// Manager owns the per-account session cache. It resolves data on sign-in,
// clears it on sign-out, and reconciles optimistic updates with a refetch.
// All mutation happens under one lock; collaborators receive the manager
// explicitly instead of reaching for globals.
type Manager struct {
	mu     sync.Mutex
	data   map[uuid.UUID]UserData
	loader Loader

	unsubscribe func()
}

// NewManager builds a manager subscribed to the given bus.
func NewManager(bus *Bus, loader Loader) *Manager {
	m := &Manager{
		data:   make(map[uuid.UUID]UserData),
		loader: loader,
	}
	m.unsubscribe = bus.Subscribe(m.handle)
	return m
}

func (m *Manager) handle(e Event) {
	switch e.Kind {
	case SignedIn:
		if err := m.Refresh(context.Background(), e.UserID); err != nil {
			log.Printf("session: load user data user_id=%s err=%v", e.UserID, err)
		}
	case SignedOut:
		m.mu.Lock()
		delete(m.data, e.UserID)
		m.mu.Unlock()
	}
}

// Data returns the cached UserData, loading it on a cache miss.
func (m *Manager) Data(ctx context.Context, userID uuid.UUID) (UserData, error) {
	m.mu.Lock()
	cached, ok := m.data[userID]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	if err := m.Refresh(ctx, userID); err != nil {
		return UserData{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[userID], nil
}

// RecordRun prepends a finished run optimistically; callers follow up with
// Refresh so the server's view wins. With nothing cached there is nothing to
// patch, the next Data call loads the full server state instead.
func (m *Manager) RecordRun(userID uuid.UUID, entry entity.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.data[userID]
	if !ok {
		return
	}
	data.History = append([]entity.HistoryEntry{entry}, data.History...)
	m.data[userID] = data
}

// Refresh refetches UserData from the loader and replaces the cache entry.
func (m *Manager) Refresh(ctx context.Context, userID uuid.UUID) error {
	data, err := m.loader.LoadUserData(ctx, userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[userID] = data
	m.mu.Unlock()
	return nil
}

// Close detaches the manager from the event bus.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
