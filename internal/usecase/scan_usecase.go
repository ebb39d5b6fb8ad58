package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// ScanUseCase skaner (kamera, HTTP, Telegram) dan kelgan matnni qayta ishlash
type ScanUseCase interface {
	// OnDecoded dekodlangan matnni savatga qo'shish va natijani qaytarish.
	// ctx yopilgan bo'lsa natija xabar qilinmaydi, lekin yozuv bekor qilinmaydi.
	OnDecoded(ctx context.Context, source, text string) entity.Outcome

	// History oxirgi skanerlashlar
	History(ctx context.Context, limit int) ([]entity.ScanRecord, error)
}

type scanUseCase struct {
	cart     CartUseCase
	journal  repository.ScanJournal
	notifier repository.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewScanUseCase yangi ScanUseCase yaratish. notifier nil bo'lishi mumkin.
func NewScanUseCase(cart CartUseCase, journal repository.ScanJournal, notifier repository.Notifier, logger *zap.Logger) ScanUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &scanUseCase{
		cart:     cart,
		journal:  journal,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// OnDecoded dekodlangan matnni qayta ishlash
func (u *scanUseCase) OnDecoded(ctx context.Context, source, text string) entity.Outcome {
	barcode := strings.TrimSpace(text)
	result, err := u.cart.AddScannedItem(ctx, barcode)

	outcome := BuildOutcome(barcode, result, err, u.now())
	u.record(ctx, source, outcome)

	if ctx.Err() != nil {
		u.logger.Debug("scan context closed, outcome discarded",
			zap.String("barcode", barcode),
			zap.String("outcome", string(outcome.Kind)))
		return outcome
	}
	if u.notifier != nil {
		u.notifier.Notify(ctx, outcome)
	}
	return outcome
}

func (u *scanUseCase) record(ctx context.Context, source string, outcome entity.Outcome) {
	if u.journal == nil {
		return
	}
	rec := entity.ScanRecord{
		ID:        uuid.New().String(),
		Partition: u.cart.Partition(),
		Barcode:   outcome.Barcode,
		Source:    source,
		Kind:      outcome.Kind,
		ErrorKind: outcome.ErrorKind,
		Message:   outcome.Message,
		Timestamp: outcome.At,
	}
	if outcome.Item != nil {
		rec.ItemKey = outcome.Item.Key
	}
	if err := u.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		u.logger.Warn("scan journal write failed", zap.Error(err))
	}
}

// History oxirgi skanerlashlar
func (u *scanUseCase) History(ctx context.Context, limit int) ([]entity.ScanRecord, error) {
	if u.journal == nil {
		return nil, nil
	}
	return u.journal.Recent(ctx, limit)
}

// BuildOutcome savat natijasi yoki xatolikdan foydalanuvchiga ko'rsatiladigan natija
func BuildOutcome(barcode string, result *ScanResult, err error, at time.Time) entity.Outcome {
	if err == nil && result != nil {
		item := result.Item
		msg := fmt.Sprintf("%s added to cart", item.Name)
		if !result.Created {
			msg = fmt.Sprintf("%s quantity is now %d", item.Name, item.Quantity)
		}
		return entity.Outcome{
			Kind:        entity.OutcomeSuccess,
			Message:     msg,
			Barcode:     barcode,
			ProductName: item.Name,
			Item:        &item,
			Created:     result.Created,
			At:          at,
		}
	}

	outcome := entity.Outcome{
		Kind:    entity.OutcomeError,
		Barcode: barcode,
		Message: fmt.Sprintf("scan %s failed: %v", barcode, err),
		At:      at,
	}

	var ce *entity.CartError
	if !errors.As(err, &ce) {
		return outcome
	}
	outcome.ErrorKind = ce.Kind
	outcome.ProductName = ce.Product
	if ce.Existing != nil {
		existing := *ce.Existing
		outcome.Item = &existing
		if outcome.ProductName == "" {
			outcome.ProductName = existing.Name
		}
	}

	switch ce.Kind {
	case entity.KindProductNotFound:
		outcome.Message = fmt.Sprintf("No product found for barcode %s", barcode)
	case entity.KindInvalidProduct:
		outcome.Message = fmt.Sprintf("%s (%s) cannot be added: %s", outcome.ProductName, barcode, ce.Message)
	case entity.KindDuplicateItem:
		outcome.Message = fmt.Sprintf("%s (%s) is already in the cart", outcome.ProductName, barcode)
	case entity.KindConflict:
		outcome.Message = fmt.Sprintf("Cart is busy, scan %s again", barcode)
	case entity.KindTransport:
		outcome.Message = fmt.Sprintf("Cart storage unavailable, %s was not added", barcode)
	}
	return outcome
}
