package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const badgerCartPrefix = "cart/"

// badgerCartRecord partition kaliti ostida saqlanadigan qiymat
type badgerCartRecord struct {
	Version   int64            `json:"version"`
	State     entity.CartState `json:"state"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// BadgerCartRepository badger asosidagi savat storage. Badger tranzaksiyalari
// optimistik: parallel yozuvda Commit ErrConflict qaytaradi.
type BadgerCartRepository struct {
	db     *badger.DB
	logger *zap.Logger
}

var (
	_ repository.CartRepository = (*BadgerCartRepository)(nil)
	_ repository.CartWatcher    = (*BadgerCartRepository)(nil)
)

// OpenBadger badger bazasini ochish. path bo'sh bo'lsa xotirada ishlaydi.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return db, nil
}

// NewBadgerCartRepository badger cart repository yaratish
func NewBadgerCartRepository(db *badger.DB, logger *zap.Logger) *BadgerCartRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerCartRepository{db: db, logger: logger}
}

func badgerCartKey(partition string) []byte {
	return []byte(badgerCartPrefix + partition)
}

// Load joriy holatni olish
func (b *BadgerCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *badgerCartRecord
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readBadgerRecord(txn, partition)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.snapshot(partition), nil
}

// CompareAndSwap versiya mos kelsa yozish
func (b *BadgerCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expected, ok := parseVersion(expectedVersion)
	if !ok {
		return nil, repository.ErrVersionMismatch
	}

	written := &badgerCartRecord{Version: expected + 1, State: next.Clone(), UpdatedAt: time.Now()}
	err := b.db.Update(func(txn *badger.Txn) error {
		current, err := readBadgerRecord(txn, partition)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return repository.ErrVersionMismatch
		}

		data, err := json.Marshal(written)
		if err != nil {
			return fmt.Errorf("cart record encode: %w", err)
		}
		return txn.Set(badgerCartKey(partition), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, repository.ErrVersionMismatch
	}
	if err != nil {
		return nil, err
	}
	return written.snapshot(partition), nil
}

// Watch badger Subscribe orqali partition kalitini kuzatadi
func (b *BadgerCartRepository) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	match := []pb.Match{{Prefix: badgerCartKey(partition)}}
	key := string(badgerCartKey(partition))

	err := b.db.Subscribe(ctx, func(kvs *badger.KVList) error {
		for _, kv := range kvs.Kv {
			// Prefix boshqa partitionlarni ham tutishi mumkin ("cart/a" va "cart/ab")
			if string(kv.Key) != key {
				continue
			}
			var rec badgerCartRecord
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				b.logger.Warn("badger watch: undecodable cart record", zap.String("partition", partition), zap.Error(err))
				continue
			}
			fn(*rec.snapshot(partition))
		}
		return nil
	}, match)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readBadgerRecord(txn *badger.Txn, partition string) (*badgerCartRecord, error) {
	item, err := txn.Get(badgerCartKey(partition))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &badgerCartRecord{State: entity.NewCartState()}, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &badgerCartRecord{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("cart record decode: %w", err)
	}
	if rec.State.Items == nil {
		rec.State.Items = map[string]entity.CartItem{}
	}
	return rec, nil
}

func (r *badgerCartRecord) snapshot(partition string) *entity.CartSnapshot {
	return &entity.CartSnapshot{Partition: partition, Version: formatVersion(r.Version), State: r.State.Clone()}
}
