package repository

import (
	"context"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// ScanJournal skanerlash tarixini saqlash uchun interface
type ScanJournal interface {
	// Record yozuvni saqlash
	Record(ctx context.Context, record entity.ScanRecord) error

	// Recent oxirgi yozuvlar (yangisi birinchi)
	Recent(ctx context.Context, limit int) ([]entity.ScanRecord, error)

	// Clear jurnalni tozalash
	Clear(ctx context.Context) error
}
