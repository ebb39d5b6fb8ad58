package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

type sqliteCartRepository struct {
	db *sql.DB
}

// NewSQLiteCartRepository SQLite asosidagi cart repository.
// Versiya ustuni bo'yicha shartli UPDATE compare-and-swap vazifasini bajaradi.
func NewSQLiteCartRepository(db *sql.DB) repository.CartRepository {
	return &sqliteCartRepository{db: db}
}

// Load joriy holatni olish
func (s *sqliteCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	var version int64
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT version, state FROM cart_partitions WHERE partition = ?`, partition).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &entity.CartSnapshot{Partition: partition, State: entity.NewCartState()}, nil
	}
	if err != nil {
		return nil, err
	}

	state, err := decodeCartState([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &entity.CartSnapshot{Partition: partition, Version: formatVersion(version), State: state}, nil
}

// CompareAndSwap versiya mos kelsa yozish
func (s *sqliteCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	expected, ok := parseVersion(expectedVersion)
	if !ok {
		return nil, repository.ErrVersionMismatch
	}

	data, err := encodeCartState(next)
	if err != nil {
		return nil, err
	}

	var res sql.Result
	if expected == 0 {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO cart_partitions (partition, version, state, updated_at) VALUES (?, 1, ?, ?)
ON CONFLICT(partition) DO NOTHING`, partition, string(data), time.Now())
	} else {
		res, err = s.db.ExecContext(ctx, `
UPDATE cart_partitions SET version = version + 1, state = ?, updated_at = ?
WHERE partition = ? AND version = ?`, string(data), time.Now(), partition, expected)
	}
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, repository.ErrVersionMismatch
	}

	return &entity.CartSnapshot{
		Partition: partition,
		Version:   formatVersion(expected + 1),
		State:     next.Clone(),
	}, nil
}
