package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the identity registry and the connection table. Identities are
// in-memory only: after a server restart clients receive 401 and re-register.
// Persistent storage arrives with the future auth work.
//
// The mutex guards only registry and table mutations. Teardown of a
// superseded record runs entirely outside the lock, on the reaper, so the
// claim path is never blocked by an in-progress cleanup.
type Manager struct {
	mu          sync.RWMutex
	registered  map[string]struct{}
	connections map[string]*Record

	reaper *Reaper
	logger *slog.Logger
}

// NewManager creates a session manager with the given reaper for background
// teardown.
func NewManager(logger *slog.Logger, reaper *Reaper) *Manager {
	return &Manager{
		registered:  make(map[string]struct{}),
		connections: make(map[string]*Record),
		reaper:      reaper,
		logger:      logger,
	}
}

// GenerateAndRegister creates a new unique client identity, adds it to the
// known set, and returns it. Identities are never reused or removed for the
// process lifetime.
func (m *Manager) GenerateAndRegister() string {
	id := uuid.NewString()

	m.mu.Lock()
	m.registered[id] = struct{}{}
	m.mu.Unlock()

	m.logger.Debug("Generated and registered new client identity",
		slog.String("client_id", id),
	)
	return id
}

// IsRegistered reports whether the identity was issued by this process.
func (m *Manager) IsRegistered(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.registered[id]
	return ok
}

// Register installs record as the current session for id. A record already
// present at call time is a protocol violation (the handover sequence pops the
// old record first); it is logged loudly and overwritten.
func (m *Manager) Register(id string, record *Record) {
	m.mu.Lock()
	if existing, ok := m.connections[id]; ok {
		m.logger.Error("Register called with live record still in table, overwriting",
			slog.String("client_id", id),
			slog.Duration("existing_age", time.Since(existing.ConnectedAt)),
		)
	}
	m.connections[id] = record
	m.mu.Unlock()

	m.logger.Debug("Registered connection",
		slog.String("client_id", id),
	)
}

// Unregister removes the mapping for id if present; no-op otherwise.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	_, ok := m.connections[id]
	if ok {
		delete(m.connections, id)
	}
	m.mu.Unlock()

	if ok {
		m.logger.Debug("Unregistered connection",
			slog.String("client_id", id),
		)
	}
}

// TakeExisting atomically removes and returns the record currently associated
// with id. A caller that receives a record is guaranteed sole ownership, and
// the slot is free for a new Register before this call returns. This is what
// keeps "at most one active connection per identity" true when a reconnect
// races with an in-progress teardown of the previous connection.
func (m *Manager) TakeExisting(id string) (*Record, bool) {
	m.mu.Lock()
	record, ok := m.connections[id]
	if ok {
		delete(m.connections, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil, false
	}

	record.setPhase(PhaseClaimed)
	m.logger.Info("Claimed existing connection for handover",
		slog.String("client_id", id),
		slog.Duration("age", time.Since(record.ConnectedAt)),
	)
	return record, true
}

// Cleanup hands a claimed record to the background reaper. It returns
// immediately; the caller never waits on the teardown.
func (m *Manager) Cleanup(record *Record) {
	m.reaper.Cleanup(record)
}

// Handover performs the reconnect sequence for id: pop any existing record,
// hand it to the reaper, and install the new record. The pop and insert run
// under a single lock acquisition so racing reconnects for the same identity
// serialize cleanly; the teardown itself runs outside the lock. Returns
// whether an old connection was superseded.
func (m *Manager) Handover(id string, record *Record) bool {
	m.mu.Lock()
	old, ok := m.connections[id]
	m.connections[id] = record
	m.mu.Unlock()

	if !ok {
		m.logger.Debug("Registered connection",
			slog.String("client_id", id),
		)
		return false
	}

	old.setPhase(PhaseClaimed)
	m.logger.Info("Superseding existing connection",
		slog.String("client_id", id),
		slog.Duration("age", time.Since(old.ConnectedAt)),
	)
	m.reaper.Cleanup(old)
	return true
}

// Get returns the record for id, for observability and configuration use.
// An absent identity is a normal state, not an error.
func (m *Manager) Get(id string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.connections[id]
	return record, ok
}

// ActiveConnectionCount returns the number of active records.
func (m *Manager) ActiveConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// RegisteredIdentityCount returns the number of issued identities.
func (m *Manager) RegisteredIdentityCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.registered)
}

// Snapshot returns observability info for all active connections.
func (m *Manager) Snapshot() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.connections))
	for _, record := range m.connections {
		infos = append(infos, record.Info())
	}
	return infos
}

// Stop joins outstanding cleanups within the context's deadline. Teardown is
// best effort: a hung transport or task must not stall shutdown.
func (m *Manager) Stop(ctx context.Context) {
	m.logger.Info("Stopping session manager",
		slog.Int("active_connections", m.ActiveConnectionCount()),
		slog.Int("outstanding_cleanups", m.reaper.Outstanding()),
	)

	if err := m.reaper.Join(ctx); err != nil {
		m.logger.Warn("Abandoning outstanding cleanups",
			slog.Int("outstanding", m.reaper.Outstanding()),
			slog.String("error", err.Error()),
		)
		return
	}

	m.logger.Info("Session manager stopped")
}
