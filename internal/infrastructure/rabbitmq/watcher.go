package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// Watcher exchange ga bog'langan vaqtinchalik navbatdan savat
// o'zgarishlarini o'qiydi. repo berilsa xabar faqat signal sifatida
// ishlatiladi va holat storage dan qayta o'qiladi, shunda kechikib kelgan
// eski xabar yangi holatni bosib ketmaydi. Yo'qolgan xabarlar resync
// oralig'ida davriy qayta o'qish bilan tiklanadi.
type Watcher struct {
	pool   *ChannelPool
	repo   repository.CartRepository
	resync time.Duration
	logger *zap.Logger
}

// DefaultResyncInterval storage'ni davriy qayta o'qish oralig'i
const DefaultResyncInterval = 5 * time.Second

var _ repository.CartWatcher = (*Watcher)(nil)

// NewWatcher yangi watcher; repo nil bo'lishi mumkin, unda resync ishlamaydi
func NewWatcher(pool *ChannelPool, repo repository.CartRepository, resync time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resync <= 0 {
		resync = DefaultResyncInterval
	}
	return &Watcher{pool: pool, repo: repo, resync: resync, logger: logger}
}

// Watch ctx tugaguncha xabarlarni o'qiydi
func (w *Watcher) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	ch, err := w.pool.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"",    // server nom beradi
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", w.pool.Exchange(), false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx,
		q.Name,
		"",
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	// Obunadan oldingi holatni ham yetkazish
	if w.repo != nil {
		w.reload(ctx, partition, fn)
	}

	w.logger.Info("cart watcher consuming", zap.String("queue", q.Name), zap.String("partition", partition))
	return w.consume(ctx, partition, msgs, fn)
}

// consume xabarlarni va resync taymerini ctx tugaguncha qayta ishlaydi
func (w *Watcher) consume(ctx context.Context, partition string, msgs <-chan amqp.Delivery, fn func(entity.CartSnapshot)) error {
	var tick <-chan time.Time
	if w.repo != nil {
		ticker := time.NewTicker(w.resync)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			w.reload(ctx, partition, fn)
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("cart event stream closed")
			}
			w.handle(ctx, partition, msg, fn)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, partition string, msg amqp.Delivery, fn func(entity.CartSnapshot)) {
	ev, err := decodeEvent(msg.Body)
	if err != nil {
		w.logger.Warn("malformed cart event dropped", zap.Error(err))
		return
	}
	if ev.Partition != partition {
		return
	}
	if w.repo == nil {
		fn(ev.Snapshot())
		return
	}
	w.reload(ctx, partition, fn)
}

func (w *Watcher) reload(ctx context.Context, partition string, fn func(entity.CartSnapshot)) {
	snap, err := w.repo.Load(ctx, partition)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("cart reload failed", zap.Error(err))
		}
		return
	}
	fn(*snap)
}
