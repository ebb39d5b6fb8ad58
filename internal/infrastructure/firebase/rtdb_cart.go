package firebaseinfra

import (
	"context"
	"time"

	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const (
	defaultCartRoot     = "carts"
	defaultRTDBPollRate = time.Second
)

// RTDBCartRepository Realtime Database da <root>/<partition> tugunida savatni
// saqlaydi. Versiya tugun ETag qiymati.
type RTDBCartRepository struct {
	client   *db.Client
	root     string
	interval time.Duration
	logger   *zap.Logger
}

var (
	_ repository.CartRepository = (*RTDBCartRepository)(nil)
	_ repository.CartWatcher    = (*RTDBCartRepository)(nil)
)

// NewRTDBCartRepository yangi RTDB cart repository
func NewRTDBCartRepository(client *db.Client, root string, logger *zap.Logger) *RTDBCartRepository {
	if root == "" {
		root = defaultCartRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RTDBCartRepository{client: client, root: root, interval: defaultRTDBPollRate, logger: logger}
}

func (r *RTDBCartRepository) ref(partition string) *db.Ref {
	return r.client.NewRef(r.root).Child(partition)
}

// Load joriy holat va ETag
func (r *RTDBCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	var state entity.CartState
	etag, err := r.ref(partition).GetWithETag(ctx, &state)
	if err != nil {
		return nil, err
	}
	return &entity.CartSnapshot{Partition: partition, Version: etag, State: normalizeState(state)}, nil
}

// CompareAndSwap ETag mos kelsa yozish. Yangi ETag qayta o'qib olinadi, shuning
// uchun qaytgan snapshot yozilgan holatdan yangiroq bo'lishi mumkin.
func (r *RTDBCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	if next.Items == nil {
		next.Items = map[string]entity.CartItem{}
	}
	ok, err := r.ref(partition).SetIfUnchanged(ctx, expectedVersion, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrVersionMismatch
	}
	return r.Load(ctx, partition)
}

// Watch GetIfChanged orqali ETag o'zgarishini kuzatadi
func (r *RTDBCartRepository) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	etag := ""
	for {
		var state entity.CartState
		changed, newTag, err := r.ref(partition).GetIfChanged(ctx, etag, &state)
		switch {
		case err != nil && ctx.Err() == nil:
			r.logger.Warn("rtdb cart poll failed", zap.String("partition", partition), zap.Error(err))
		case err == nil && changed:
			etag = newTag
			fn(entity.CartSnapshot{Partition: partition, Version: newTag, State: normalizeState(state)})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// normalizeState bo'sh tugun (null) va miqdori 0 bo'lgan pozitsiyalarni tozalaydi
func normalizeState(state entity.CartState) entity.CartState {
	out := entity.NewCartState()
	out.NextKey = state.NextKey
	for key, item := range state.Items {
		if item.Quantity <= 0 {
			continue
		}
		item.Key = key
		out.Items[key] = item
	}
	return out
}
