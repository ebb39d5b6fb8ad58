package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// DefaultPollInterval push imkoniyati yo'q storage uchun so'rov oralig'i
const DefaultPollInterval = 500 * time.Millisecond

// PollingWatcher o'zgarish xabarlarini bera olmaydigan storage (SQL) uchun
// versiyani davriy tekshiradi
type PollingWatcher struct {
	repo     repository.CartRepository
	interval time.Duration
	logger   *zap.Logger
}

var _ repository.CartWatcher = (*PollingWatcher)(nil)

// NewPollingWatcher yangi PollingWatcher
func NewPollingWatcher(repo repository.CartRepository, interval time.Duration, logger *zap.Logger) *PollingWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollingWatcher{repo: repo, interval: interval, logger: logger}
}

// Watch versiya o'zgarganda fn chaqiriladi
func (w *PollingWatcher) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := ""
	first := true
	for {
		snap, err := w.repo.Load(ctx, partition)
		switch {
		case err != nil && ctx.Err() == nil:
			w.logger.Warn("cart poll failed", zap.String("partition", partition), zap.Error(err))
		case err == nil && (first || snap.Version != last):
			first = false
			last = snap.Version
			fn(*snap)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
