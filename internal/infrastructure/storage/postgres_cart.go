package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const pgErrUniqueViolation = "23505"

// cartPartitionRow cart_partitions jadvali
type cartPartitionRow struct {
	Partition string `gorm:"primaryKey;size:128"`
	Version   int64  `gorm:"not null"`
	State     []byte `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (cartPartitionRow) TableName() string {
	return "cart_partitions"
}

type postgresCartRepository struct {
	db *gorm.DB
}

// OpenPostgres gorm orqali PostgreSQL ga ulanish va jadvalni yaratish
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&cartPartitionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cart_partitions: %w", err)
	}
	return db, nil
}

// NewPostgresCartRepository PostgreSQL asosidagi cart repository
func NewPostgresCartRepository(db *gorm.DB) repository.CartRepository {
	return &postgresCartRepository{db: db}
}

// Load joriy holatni olish
func (r *postgresCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	var row cartPartitionRow
	err := r.db.WithContext(ctx).Where("partition = ?", partition).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.CartSnapshot{Partition: partition, State: entity.NewCartState()}, nil
	}
	if err != nil {
		return nil, err
	}

	state, err := decodeCartState(row.State)
	if err != nil {
		return nil, err
	}
	return &entity.CartSnapshot{Partition: partition, Version: formatVersion(row.Version), State: state}, nil
}

// CompareAndSwap versiya mos kelsa yozish
func (r *postgresCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	expected, ok := parseVersion(expectedVersion)
	if !ok {
		return nil, repository.ErrVersionMismatch
	}

	data, err := encodeCartState(next)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	if expected == 0 {
		row := cartPartitionRow{Partition: partition, Version: 1, State: data, UpdatedAt: now}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
				return nil, repository.ErrVersionMismatch
			}
			return nil, err
		}
	} else {
		res := r.db.WithContext(ctx).Model(&cartPartitionRow{}).
			Where("partition = ? AND version = ?", partition, expected).
			Updates(map[string]interface{}{
				"version":    expected + 1,
				"state":      data,
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, repository.ErrVersionMismatch
		}
	}

	return &entity.CartSnapshot{Partition: partition, Version: formatVersion(expected + 1), State: next.Clone()}, nil
}
