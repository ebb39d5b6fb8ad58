package firebaseinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const cartsCollection = "carts"

// fsCartItem Firestore dagi carts/{partition}.items.{key}
type fsCartItem struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Barcode   string    `firestore:"barcode"`
	UnitPrice int64     `firestore:"unitPrice"` // minor birlik
	Quantity  int64     `firestore:"quantity"`
	AddedAt   time.Time `firestore:"addedAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type fsCart struct {
	Items   map[string]fsCartItem `firestore:"items"`
	NextKey int64                 `firestore:"nextKey"`
}

// FirestoreCartRepository carts/{partition} hujjatida savatni saqlaydi.
// Versiya hujjatning UpdateTime qiymati; yozuv LastUpdateTime sharti bilan qilinadi.
type FirestoreCartRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

var (
	_ repository.CartRepository = (*FirestoreCartRepository)(nil)
	_ repository.CartWatcher    = (*FirestoreCartRepository)(nil)
)

// NewFirestoreCartRepository yangi Firestore cart repository
func NewFirestoreCartRepository(client *firestore.Client, logger *zap.Logger) *FirestoreCartRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreCartRepository{client: client, logger: logger}
}

func (r *FirestoreCartRepository) doc(partition string) *firestore.DocumentRef {
	return r.client.Collection(cartsCollection).Doc(partition)
}

// Load joriy holatni olish
func (r *FirestoreCartRepository) Load(ctx context.Context, partition string) (*entity.CartSnapshot, error) {
	snap, err := r.doc(partition).Get(ctx)
	if isCode(err, codes.NotFound) {
		return &entity.CartSnapshot{Partition: partition, State: entity.NewCartState()}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeFirestoreCart(partition, snap)
}

// CompareAndSwap versiya mos kelsa yozish
func (r *FirestoreCartRepository) CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error) {
	data := encodeFirestoreCart(next)
	ref := r.doc(partition)

	var res *firestore.WriteResult
	var err error
	if expectedVersion == "" {
		res, err = ref.Create(ctx, data)
		if isCode(err, codes.AlreadyExists) {
			return nil, repository.ErrVersionMismatch
		}
	} else {
		lastUpdate, perr := time.Parse(time.RFC3339Nano, expectedVersion)
		if perr != nil {
			return nil, repository.ErrVersionMismatch
		}
		res, err = ref.Update(ctx, []firestore.Update{
			{Path: "items", Value: data.Items},
			{Path: "nextKey", Value: data.NextKey},
		}, firestore.LastUpdateTime(lastUpdate))
		if isCode(err, codes.FailedPrecondition) || isCode(err, codes.NotFound) {
			return nil, repository.ErrVersionMismatch
		}
	}
	if err != nil {
		return nil, err
	}

	return &entity.CartSnapshot{
		Partition: partition,
		Version:   res.UpdateTime.UTC().Format(time.RFC3339Nano),
		State:     next.Clone(),
	}, nil
}

// Watch hujjat snapshotlarini kuzatish
func (r *FirestoreCartRepository) Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error {
	it := r.doc(partition).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("firestore cart watch: %w", err)
		}
		if !snap.Exists() {
			fn(entity.CartSnapshot{Partition: partition, State: entity.NewCartState()})
			continue
		}
		decoded, err := decodeFirestoreCart(partition, snap)
		if err != nil {
			r.logger.Warn("firestore watch: undecodable cart", zap.String("partition", partition), zap.Error(err))
			continue
		}
		fn(*decoded)
	}
}

func encodeFirestoreCart(state entity.CartState) fsCart {
	out := fsCart{Items: make(map[string]fsCartItem, len(state.Items)), NextKey: state.NextKey}
	for key, item := range state.Items {
		out.Items[key] = fsCartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Barcode:   item.Barcode,
			UnitPrice: int64(item.UnitPrice),
			Quantity:  int64(item.Quantity),
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}
	return out
}

func decodeFirestoreCart(partition string, snap *firestore.DocumentSnapshot) (*entity.CartSnapshot, error) {
	if snap == nil {
		return nil, errors.New("nil firestore snapshot")
	}
	var doc fsCart
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode carts/%s: %w", partition, err)
	}

	state := entity.NewCartState()
	state.NextKey = doc.NextKey
	for key, item := range doc.Items {
		// Miqdori 0 bo'lgan pozitsiya mavjud emas deb hisoblanadi
		if item.Quantity <= 0 {
			continue
		}
		state.Items[key] = entity.CartItem{
			Key:       key,
			ProductID: item.ProductID,
			Name:      item.Name,
			Barcode:   item.Barcode,
			UnitPrice: entity.Money(item.UnitPrice),
			Quantity:  int(item.Quantity),
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}

	return &entity.CartSnapshot{
		Partition: partition,
		Version:   snap.UpdateTime.UTC().Format(time.RFC3339Nano),
		State:     state,
	}, nil
}
