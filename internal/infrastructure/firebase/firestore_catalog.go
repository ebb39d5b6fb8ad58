package firebaseinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const (
	productsCollection = "products"
	catalogMetaDoc     = "catalog_meta/products"
	maxBatchWrites     = 450
)

type firestoreProductRepository struct {
	client *firestore.Client
}

// NewFirestoreProductRepository products kolleksiyasi asosidagi katalog
func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{client: client}
}

func (r *firestoreProductRepository) col() *firestore.CollectionRef {
	return r.client.Collection(productsCollection)
}

// FindByBarcode shtrix-kod bo'yicha mahsulot
func (r *firestoreProductRepository) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	it := r.col().Where("barcode", "==", barcode).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p := productFromFields(snap.Ref.ID, snap.Data())
	return &p, nil
}

// GetByID ID bo'yicha mahsulot
func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if isCode(err, codes.NotFound) {
		return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	p := productFromFields(snap.Ref.ID, snap.Data())
	return &p, nil
}

// GetAll barcha mahsulotlar
func (r *firestoreProductRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	it := r.col().Documents(ctx)
	defer it.Stop()

	var products []entity.Product
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		products = append(products, productFromFields(snap.Ref.ID, snap.Data()))
	}
	return products, nil
}

// UpdateCatalog katalogni almashtirish: yangi mahsulotlar yoziladi, qolganlari o'chiriladi
func (r *firestoreProductRepository) UpdateCatalog(ctx context.Context, catalog entity.ProductCatalog) error {
	keep := make(map[string]struct{}, len(catalog.Products))
	var writes []func(*firestore.WriteBatch)

	for _, p := range catalog.Products {
		p := p
		keep[p.ID] = struct{}{}
		writes = append(writes, func(b *firestore.WriteBatch) {
			b.Set(r.col().Doc(p.ID), productFields(p))
		})
	}

	refs, err := r.col().DocumentRefs(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for _, ref := range refs {
		if _, ok := keep[ref.ID]; ok {
			continue
		}
		ref := ref
		writes = append(writes, func(b *firestore.WriteBatch) { b.Delete(ref) })
	}

	writes = append(writes, func(b *firestore.WriteBatch) {
		b.Set(r.client.Doc(catalogMetaDoc), map[string]interface{}{
			"source":    catalog.Source,
			"updatedAt": catalog.UpdatedAt,
			"count":     len(catalog.Products),
		})
	})

	// Batch cheklovi sababli qismlarga bo'lib yoziladi
	for start := 0; start < len(writes); start += maxBatchWrites {
		end := start + maxBatchWrites
		if end > len(writes) {
			end = len(writes)
		}
		batch := r.client.Batch()
		for _, w := range writes[start:end] {
			w(batch)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("catalog batch commit: %w", err)
		}
	}
	return nil
}

// GetCatalog katalog va uning meta ma'lumotlari
func (r *firestoreProductRepository) GetCatalog(ctx context.Context) (*entity.ProductCatalog, error) {
	products, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	catalog := &entity.ProductCatalog{Products: products, Source: productsCollection}

	meta, err := r.client.Doc(catalogMetaDoc).Get(ctx)
	switch {
	case err == nil:
		data := meta.Data()
		if s := stringField(data["source"]); s != "" {
			catalog.Source = s
		}
		if t, ok := data["updatedAt"].(time.Time); ok {
			catalog.UpdatedAt = t
		}
	case !isCode(err, codes.NotFound):
		return nil, err
	}

	if len(products) == 0 && catalog.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("catalog not found")
	}
	return catalog, nil
}

// DecrementStock ombor sonini tranzaksiya ichida kamaytirish
func (r *firestoreProductRepository) DecrementStock(ctx context.Context, productID string, n int) error {
	ref := r.col().Doc(productID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isCode(err, codes.NotFound) {
			return fmt.Errorf("%w: %s", repository.ErrProductNotFound, productID)
		}
		if err != nil {
			return err
		}

		raw, _ := snap.DataAt("stock")
		stock, _ := intField(raw)
		stock -= n
		if stock < 0 {
			stock = 0
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: stock},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}
