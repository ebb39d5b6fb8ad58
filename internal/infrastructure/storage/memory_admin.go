package storage

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const adminSessionTTL = 24 * time.Hour

type memoryAdminRepository struct {
	mu       sync.RWMutex
	sessions map[int64]entity.AdminSession
	actions  []entity.AdminAction
	maxLog   int
}

// NewMemoryAdminRepository in-memory admin repository yaratish
func NewMemoryAdminRepository() repository.AdminRepository {
	return &memoryAdminRepository{
		sessions: make(map[int64]entity.AdminSession),
		actions:  []entity.AdminAction{},
		maxLog:   500,
	}
}

// CreateSession admin sessiyasini yaratish
func (m *memoryAdminRepository) CreateSession(ctx context.Context, session entity.AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.LastActivity = time.Now()
	m.sessions[session.UserID] = session
	return nil
}

// DeleteSession sessiyani o'chirish (logout)
func (m *memoryAdminRepository) DeleteSession(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// IsAdmin foydalanuvchi admin ekanligini tekshirish. Faol sessiya muddati uzaytiriladi.
func (m *memoryAdminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[userID]
	if !exists {
		return false, nil
	}

	// Session timeout tekshirish (24 soat)
	if time.Since(session.LastActivity) > adminSessionTTL {
		delete(m.sessions, userID)
		return false, nil
	}

	session.LastActivity = time.Now()
	m.sessions[userID] = session
	return session.IsAdmin, nil
}

// LogAction admin harakatini loglash
func (m *memoryAdminRepository) LogAction(ctx context.Context, action entity.AdminAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = append(m.actions, action)
	if len(m.actions) > m.maxLog {
		m.actions = m.actions[len(m.actions)-m.maxLog:]
	}
	return nil
}

// RecentActions oxirgi harakatlar
func (m *memoryAdminRepository) RecentActions(ctx context.Context, limit int) ([]entity.AdminAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.actions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]entity.AdminAction, 0, n)
	for i := len(m.actions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.actions[i])
	}
	return out, nil
}
