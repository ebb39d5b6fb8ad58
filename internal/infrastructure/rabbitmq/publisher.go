package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const publishTimeout = 5 * time.Second

// Publisher tasdiqlangan savat o'zgarishlarini fanout exchange ga yuboradi
type Publisher struct {
	pool   *ChannelPool
	origin string
	logger *zap.Logger
}

var _ repository.ChangePublisher = (*Publisher)(nil)

// NewPublisher origin xabarni yuborgan jarayonni belgilaydi
func NewPublisher(pool *ChannelPool, origin string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{pool: pool, origin: origin, logger: logger}
}

// PublishCartChanged snapshotni e'lon qilish
func (p *Publisher) PublishCartChanged(ctx context.Context, snap entity.CartSnapshot) error {
	body, err := encodeEvent(newCartChanged(snap, p.origin, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal cart event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.ReturnChannel(ch)

	err = ch.PublishWithContext(ctx,
		p.pool.Exchange(),
		snap.Partition, // routing key; fanout uni e'tiborsiz qoldiradi
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish cart event: %w", err)
	}

	p.logger.Debug("cart event published",
		zap.String("partition", snap.Partition),
		zap.String("version", snap.Version))
	return nil
}
