package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// LogNotifier skanerlash natijalarini logga yozadi
type LogNotifier struct {
	logger *zap.Logger
}

var _ repository.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("scan")}
}

func (n *LogNotifier) Notify(_ context.Context, outcome entity.Outcome) {
	fields := []zap.Field{
		zap.String("barcode", outcome.Barcode),
		zap.String("message", outcome.Message),
	}
	if outcome.ProductName != "" {
		fields = append(fields, zap.String("product", outcome.ProductName))
	}
	if outcome.OK() {
		n.logger.Info("scan accepted", fields...)
		return
	}
	n.logger.Warn("scan rejected", append(fields, zap.String("kind", string(outcome.ErrorKind)))...)
}

// MultiNotifier natijani bir nechta notifierga uzatadi
type MultiNotifier []repository.Notifier

func (m MultiNotifier) Notify(ctx context.Context, outcome entity.Outcome) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, outcome)
		}
	}
}
