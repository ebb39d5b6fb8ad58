package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPoolClosed havza yopilgan
var ErrPoolClosed = errors.New("channel pool is closed")

// ChannelPool bitta ulanish ustidagi kanallar havzasi. Har bir kanal
// ochilganda fanout exchange e'lon qilinadi.
type ChannelPool struct {
	conn     *amqp.Connection
	channels chan *amqp.Channel
	mu       sync.Mutex
	closed   bool
	size     int
	exchange string
	logger   *zap.Logger
}

// NewChannelPool RabbitMQ ga ulanib size ta kanal ochadi
func NewChannelPool(url, exchange string, size int, logger *zap.Logger) (*ChannelPool, error) {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		conn:     conn,
		channels: make(chan *amqp.Channel, size),
		size:     size,
		exchange: exchange,
		logger:   logger,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	logger.Info("rabbitmq channel pool ready", zap.Int("size", size), zap.String("exchange", exchange))
	return pool, nil
}

// Exchange e'lon qilingan exchange nomi
func (p *ChannelPool) Exchange() string {
	return p.exchange
}

// Channel havzadan tashqari yangi kanal (consumer uchun)
func (p *ChannelPool) Channel() (*amqp.Channel, error) {
	return p.createChannel()
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return ch, nil
}

// GetChannel havzadan kanal olish. Hamma kanal band bo'lsa ctx tugaguncha
// kutadi; yopilgan kanal yangisi bilan almashtiriladi.
func (p *ChannelPool) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for pooled channel: %w", ctx.Err())
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if !ch.IsClosed() {
			return ch, nil
		}
		fresh, err := p.createChannel()
		if err != nil {
			// Havza hajmi kamaymasin: yopiq kanal keyingi safar yana almashtiriladi
			p.ReturnChannel(ch)
			return nil, err
		}
		return fresh, nil
	}
}

// ReturnChannel kanalni havzaga qaytarish. Yopilgan kanal ham qaytariladi,
// uni GetChannel almashtiradi.
func (p *ChannelPool) ReturnChannel(ch *amqp.Channel) {
	if ch == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

// Close barcha kanallar va ulanishni yopish
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("rabbitmq channel pool closed")
}
