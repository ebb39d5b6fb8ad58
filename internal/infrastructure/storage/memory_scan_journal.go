package storage

import (
	"context"
	"sync"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

type memoryScanJournal struct {
	mu      sync.RWMutex
	records []entity.ScanRecord
	maxSize int
}

// NewMemoryScanJournal in-memory skanerlash jurnali
func NewMemoryScanJournal(maxSize int) repository.ScanJournal {
	return &memoryScanJournal{maxSize: maxSize}
}

// Record yozuvni saqlash
func (m *memoryScanJournal) Record(ctx context.Context, record entity.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)

	// Maksimal hajmni nazorat qilish
	if m.maxSize > 0 && len(m.records) > m.maxSize {
		m.records = m.records[len(m.records)-m.maxSize:]
	}
	return nil
}

// Recent oxirgi yozuvlar, yangisi birinchi
func (m *memoryScanJournal) Recent(ctx context.Context, limit int) ([]entity.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]entity.ScanRecord, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Clear jurnalni tozalash
func (m *memoryScanJournal) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}
