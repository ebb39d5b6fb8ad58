package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

type sqliteScanJournal struct {
	db      *sql.DB
	maxSize int
}

// NewSQLiteScanJournal SQLite asosidagi skanerlash jurnali
func NewSQLiteScanJournal(db *sql.DB, maxSize int) repository.ScanJournal {
	return &sqliteScanJournal{db: db, maxSize: maxSize}
}

// Record yozuvni saqlash
func (s *sqliteScanJournal) Record(ctx context.Context, record entity.ScanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO scans (id, partition, barcode, source, kind, error_kind, message, item_key, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Partition, record.Barcode, record.Source, string(record.Kind), string(record.ErrorKind), record.Message, record.ItemKey, record.Timestamp)
	if err != nil {
		tx.Rollback()
		return err
	}

	// Eski yozuvlarni kesish
	if s.maxSize > 0 {
		_, err = tx.ExecContext(ctx, `
DELETE FROM scans
WHERE id IN (
  SELECT id FROM scans
  ORDER BY ts DESC
  LIMIT -1 OFFSET ?
)`, s.maxSize)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Recent oxirgi yozuvlar, yangisi birinchi
func (s *sqliteScanJournal) Recent(ctx context.Context, limit int) ([]entity.ScanRecord, error) {
	query := `SELECT id, partition, barcode, source, kind, error_kind, message, item_key, ts FROM scans ORDER BY ts DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entity.ScanRecord
	for rows.Next() {
		var rec entity.ScanRecord
		var kind, errKind string
		if err := rows.Scan(&rec.ID, &rec.Partition, &rec.Barcode, &rec.Source, &kind, &errKind, &rec.Message, &rec.ItemKey, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Kind = entity.OutcomeKind(kind)
		rec.ErrorKind = entity.ErrorKind(errKind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear jurnalni tozalash
func (s *sqliteScanJournal) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scans`)
	return err
}
