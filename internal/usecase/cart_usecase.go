package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const (
	DefaultMaxAttempts      = 8
	DefaultTransportRetries = 3
	defaultRetryBackoff     = 50 * time.Millisecond
	defaultWatchRetry       = time.Second
	maxWatchRetry           = 30 * time.Second
)

// CartPolicy savat xulq-atvori sozlamalari
type CartPolicy struct {
	Duplicate            DuplicatePolicy
	DecrementStockOnScan bool
	EnforceStock         bool
	MaxAttempts          int           // CAS urinishlari
	TransportRetries     int           // har bir storage chaqiruvi uchun qayta urinishlar
	RetryBackoff         time.Duration // transport xatoligidan keyin kutish (chiziqli)
	WatchRetry           time.Duration // kuzatuv uzilganda qayta ulanish (ikki baravar oshadi)
}

// DefaultCartPolicy standart sozlamalar
func DefaultCartPolicy() CartPolicy {
	return CartPolicy{
		Duplicate:        DuplicateReject,
		MaxAttempts:      DefaultMaxAttempts,
		TransportRetries: DefaultTransportRetries,
		RetryBackoff:     defaultRetryBackoff,
		WatchRetry:       defaultWatchRetry,
	}
}

// ScanResult AddScannedItem natijasi
type ScanResult struct {
	Item     entity.CartItem
	Created  bool // false: mavjud pozitsiya miqdori oshirildi
	Snapshot entity.CartSnapshot
	StockErr error // ombor sonini kamaytirish xatoligi; savat o'zgarishi bekor qilinmaydi
}

// CartUseCase umumiy savat bilan ishlash
type CartUseCase interface {
	// AddScannedItem shtrix-kod bo'yicha mahsulotni savatga qo'shish
	AddScannedItem(ctx context.Context, barcode string) (*ScanResult, error)

	// SetQuantity miqdorni o'rnatish; qty <= 0 bo'lsa pozitsiya o'chiriladi (removed=true)
	SetQuantity(ctx context.Context, key string, qty int) (item *entity.CartItem, removed bool, err error)

	// RemoveItem pozitsiyani o'chirish
	RemoveItem(ctx context.Context, key string) error

	// Clear savatni butunlay tozalash
	Clear(ctx context.Context) error

	// Snapshot joriy holat
	Snapshot(ctx context.Context) (*entity.CartSnapshot, error)

	// Subscribe har bir o'zgarishda fn chaqiriladi, birinchi chaqiruv joriy holat bilan.
	// Qaytgan funksiya bajarilayotgan chaqiruvni kutadi, undan keyin yangi
	// chaqiruvlar boshlanmaydi. U fn ichidan chaqirilmaydi.
	Subscribe(ctx context.Context, fn func(entity.CartSnapshot)) (func(), error)

	// Run boshqa jarayonlardagi o'zgarishlarni kuzatadi; ctx tugaguncha bloklanadi
	Run(ctx context.Context) error

	// Partition savat partition nomi
	Partition() string
}

// CartOption qo'shimcha bog'liqliklar
type CartOption func(*cartUseCase)

// WithWatcher tashqi o'zgarishlar manbai. Berilsa obunachilar faqat shu
// manbadan xabar oladi (o'z yozuvlarimiz ham u orqali keladi).
func WithWatcher(w repository.CartWatcher) CartOption {
	return func(u *cartUseCase) { u.watcher = w }
}

// WithPublisher har bir tasdiqlangan yozuvni e'lon qilish
func WithPublisher(p repository.ChangePublisher) CartOption {
	return func(u *cartUseCase) { u.publisher = p }
}

// WithClock vaqt manbai (testlar uchun)
func WithClock(now func() time.Time) CartOption {
	return func(u *cartUseCase) { u.now = now }
}

type cartUseCase struct {
	partition   string
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	watcher     repository.CartWatcher
	publisher   repository.ChangePublisher
	policy      CartPolicy
	subs        *broadcaster
	refreshMu   sync.Mutex
	logger      *zap.Logger
	now         func() time.Time
}

// NewCartUseCase yangi CartUseCase yaratish
func NewCartUseCase(
	partition string,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	policy CartPolicy,
	logger *zap.Logger,
	opts ...CartOption,
) CartUseCase {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.TransportRetries < 0 {
		policy.TransportRetries = 0
	}
	if policy.WatchRetry <= 0 {
		policy.WatchRetry = defaultWatchRetry
	}
	if !policy.Duplicate.Valid() {
		policy.Duplicate = DuplicateReject
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	u := &cartUseCase{
		partition:   partition,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		policy:      policy,
		subs:        newBroadcaster(),
		logger:      logger.With(zap.String("partition", partition)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *cartUseCase) Partition() string {
	return u.partition
}

// AddScannedItem shtrix-kod bo'yicha mahsulotni savatga qo'shish
func (u *cartUseCase) AddScannedItem(ctx context.Context, barcode string) (*ScanResult, error) {
	barcode = strings.TrimSpace(barcode)

	product, err := u.lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	var applied scanApply
	snap, err := u.mutate(ctx, "scan", insertOrReject(*product, u.policy.Duplicate, u.now(), &applied))
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Item: applied.item, Created: applied.created, Snapshot: *snap}

	if u.policy.DecrementStockOnScan {
		if err := u.productRepo.DecrementStock(ctx, product.ID, 1); err != nil {
			result.StockErr = err
			u.logger.Warn("stock decrement failed",
				zap.String("product_id", product.ID),
				zap.String("barcode", barcode),
				zap.Error(err))
		}
	}

	u.logger.Info("item scanned",
		zap.String("barcode", barcode),
		zap.String("key", applied.item.Key),
		zap.Int("quantity", applied.item.Quantity),
		zap.Bool("created", applied.created),
		zap.String("version", snap.Version))

	return result, nil
}

func (u *cartUseCase) lookup(ctx context.Context, barcode string) (*entity.Product, error) {
	if barcode == "" {
		return nil, &entity.CartError{Kind: entity.KindProductNotFound, Message: "empty barcode"}
	}

	var product *entity.Product
	err := u.withTransportRetry(ctx, func() error {
		p, err := u.productRepo.FindByBarcode(ctx, barcode)
		if errors.Is(err, repository.ErrProductNotFound) {
			return &entity.CartError{Kind: entity.KindProductNotFound, Message: entity.ErrMsgProductNotFound, Barcode: barcode}
		}
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}

	if !product.Scannable() {
		return nil, &entity.CartError{Kind: entity.KindInvalidProduct, Message: entity.ErrMsgNoPrice, Barcode: barcode, Product: product.Name}
	}
	if u.policy.EnforceStock && product.Stock <= 0 {
		return nil, &entity.CartError{Kind: entity.KindInvalidProduct, Message: entity.ErrMsgOutOfStock, Barcode: barcode, Product: product.Name}
	}
	return product, nil
}

// SetQuantity miqdorni o'rnatish
func (u *cartUseCase) SetQuantity(ctx context.Context, key string, qty int) (*entity.CartItem, bool, error) {
	if qty <= 0 {
		if err := u.RemoveItem(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	var item entity.CartItem
	if _, err := u.mutate(ctx, "set_quantity", setQuantityTransform(key, qty, u.now(), &item)); err != nil {
		return nil, false, err
	}
	return &item, false, nil
}

// RemoveItem pozitsiyani o'chirish
func (u *cartUseCase) RemoveItem(ctx context.Context, key string) error {
	_, err := u.mutate(ctx, "remove", removeTransform(key))
	return err
}

// Clear savatni tozalash
func (u *cartUseCase) Clear(ctx context.Context) error {
	_, err := u.mutate(ctx, "clear", clearTransform())
	return err
}

// Snapshot joriy holat
func (u *cartUseCase) Snapshot(ctx context.Context) (*entity.CartSnapshot, error) {
	var snap *entity.CartSnapshot
	err := u.withTransportRetry(ctx, func() error {
		var err error
		snap, err = u.cartRepo.Load(ctx, u.partition)
		return err
	})
	return snap, err
}

// Subscribe obuna bo'lish
func (u *cartUseCase) Subscribe(ctx context.Context, fn func(entity.CartSnapshot)) (func(), error) {
	sub, unsubscribe := u.subs.add(fn)

	snap, err := u.Snapshot(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	sub.seed(*snap)
	return unsubscribe, nil
}

// Run tashqi o'zgarishlarni obunachilarga uzatadi. Kuzatuv uzilsa xatolik
// loglanadi va ctx tugaguncha qayta ulaniladi.
func (u *cartUseCase) Run(ctx context.Context) error {
	defer u.subs.closeAll()
	if u.watcher == nil {
		<-ctx.Done()
		return nil
	}

	backoff := u.policy.WatchRetry
	for {
		u.logger.Info("cart watcher started")
		started := time.Now()
		err := u.watcher.Watch(ctx, u.partition, func(snap entity.CartSnapshot) {
			u.subs.publish(snap)
		})
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("watch returned")
		}
		if time.Since(started) > maxWatchRetry {
			backoff = u.policy.WatchRetry
		}

		u.logger.Warn("cart watcher stopped, reconnecting", zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxWatchRetry)

		// Uzilish paytidagi o'zgarishlar
		u.refresh(ctx)
	}
}

// mutate bounded CAS sikli: o'qish, transformatsiya, versiya bo'yicha yozish.
// Versiya mos kelmasa sikl qaytadan boshlanadi.
func (u *cartUseCase) mutate(ctx context.Context, op string, transform cartTransform) (*entity.CartSnapshot, error) {
	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		current, err := u.Snapshot(ctx)
		if err != nil {
			return nil, err
		}

		next, err := transform(current.State.Clone())
		if err != nil {
			return nil, err
		}

		var committed *entity.CartSnapshot
		err = u.withTransportRetry(ctx, func() error {
			var err error
			committed, err = u.cartRepo.CompareAndSwap(ctx, u.partition, current.Version, next)
			return err
		})
		if errors.Is(err, repository.ErrVersionMismatch) {
			u.logger.Debug("cart version mismatch, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.String("expected_version", current.Version))
			continue
		}
		if err != nil {
			return nil, err
		}

		u.committed(ctx, *committed)
		return committed, nil
	}

	u.logger.Warn("cart mutation gave up", zap.String("op", op), zap.Int("attempts", u.policy.MaxAttempts))
	return nil, &entity.CartError{Kind: entity.KindConflict, Message: entity.ErrMsgConflict}
}

func (u *cartUseCase) committed(ctx context.Context, snap entity.CartSnapshot) {
	if u.watcher == nil {
		u.refresh(context.WithoutCancel(ctx))
	}
	if u.publisher != nil {
		if err := u.publisher.PublishCartChanged(context.WithoutCancel(ctx), snap); err != nil {
			u.logger.Warn("cart change publish failed", zap.String("version", snap.Version), zap.Error(err))
		}
	}
}

// refresh storage'dagi joriy holatni obunachilarga yuboradi. Chaqiruvlar
// ketma-ket bajariladi: har bir commit'dan keyingi refresh shu commit'dan
// eski bo'lmagan holatni o'qiydi, oxirgisi esa oxirgi holatni yetkazadi.
func (u *cartUseCase) refresh(ctx context.Context) {
	if u.subs.len() == 0 {
		return
	}
	u.refreshMu.Lock()
	defer u.refreshMu.Unlock()

	snap, err := u.Snapshot(ctx)
	if err != nil {
		u.logger.Warn("cart refresh failed", zap.Error(err))
		return
	}
	u.subs.publish(*snap)
}

// withTransportRetry storage chaqiruvini transport xatoligida qayta urinadi.
// Domain xatoliklari va ErrVersionMismatch darhol qaytariladi.
func (u *cartUseCase) withTransportRetry(ctx context.Context, call func() error) error {
	var err error
	for try := 0; try <= u.policy.TransportRetries; try++ {
		if try > 0 {
			select {
			case <-ctx.Done():
				return transportError(ctx.Err())
			case <-time.After(time.Duration(try) * u.policy.RetryBackoff):
			}
		}

		err = call()
		if err == nil || errors.Is(err, repository.ErrVersionMismatch) || entity.KindOf(err) != "" {
			return err
		}
		if ctx.Err() != nil {
			return transportError(err)
		}
		u.logger.Debug("storage call failed", zap.Int("try", try+1), zap.Error(err))
	}
	return transportError(err)
}

func transportError(err error) error {
	return &entity.CartError{Kind: entity.KindTransport, Message: entity.ErrMsgTransport, Err: err}
}
