package storage

import (
	"context"
	"strconv"
	"sync"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const watchBuffer = 64

type memoryCartPartition struct {
	state   entity.CartState
	version string
}

// MemoryCartRepository jarayon ichidagi savat storage. Bir nechta CartUseCase
// bitta repository'ni ulashsa, ular bir xil partitionni ko'radi.
type MemoryCartRepository struct {
	mu         sync.Mutex
	seq        uint64
	partitions map[string]*memoryCartPartition
	watchers   map[string]map[uint64]chan entity.CartSnapshot
	nextWatch  uint64
}

var (
	_ repository.CartRepository = (*MemoryCartRepository)(nil)
	_ repository.CartWatcher    = (*MemoryCartRepository)(nil)
)

// NewMemoryCartRepository in-memory cart repository yaratish
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		partitions: make(map[string]*memoryCartPartition),
		watchers:   make(map[string]map[uint64]chan entity.CartSnapshot),
	}
}

// Load joriy holatni olish
func (m *MemoryCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partitions[partition]
	if !ok {
		return &entity.CartSnapshot{Partition: partition, State: entity.NewCartState()}, nil
	}
	return &entity.CartSnapshot{Partition: partition, Version: p.version, State: p.state.Clone()}, nil
}

// CompareAndSwap versiya mos kelsa yozish
func (m *MemoryCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := ""
	if p, ok := m.partitions[partition]; ok {
		current = p.version
	}
	if current != expectedVersion {
		return nil, repository.ErrVersionMismatch
	}

	m.seq++
	version := strconv.FormatUint(m.seq, 10)
	m.partitions[partition] = &memoryCartPartition{state: next.Clone(), version: version}

	snap := entity.CartSnapshot{Partition: partition, Version: version, State: next.Clone()}
	m.notifyLocked(snap)
	return &snap, nil
}

// Watch partition o'zgarishlarini kuzatish. Kuzatuvchi sekin bo'lsa oraliq
// holatlar tashlab yuboriladi, oxirgisi albatta yetkaziladi.
func (m *MemoryCartRepository) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	ch := make(chan entity.CartSnapshot, watchBuffer)

	m.mu.Lock()
	id := m.nextWatch
	m.nextWatch++
	if m.watchers[partition] == nil {
		m.watchers[partition] = make(map[uint64]chan entity.CartSnapshot)
	}
	m.watchers[partition][id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.watchers[partition], id)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-ch:
			fn(snap)
		}
	}
}

func (m *MemoryCartRepository) notifyLocked(snap entity.CartSnapshot) {
	for _, ch := range m.watchers[snap.Partition] {
		for {
			select {
			case ch <- snap:
			default:
				// Navbat to'la: eng eskisini tashlab qayta urinish
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
