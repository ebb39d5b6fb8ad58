package firebaseinfra

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

const (
	defaultProductsRoot = "products"
	catalogMetaRoot     = "catalogMeta"
)

type rtdbProductRepository struct {
	client *db.Client
	root   string
}

// NewRTDBProductRepository Realtime Database dagi <root>/<id> katalogi
func NewRTDBProductRepository(client *db.Client, root string) repository.ProductRepository {
	if root == "" {
		root = defaultProductsRoot
	}
	return &rtdbProductRepository{client: client, root: root}
}

func (r *rtdbProductRepository) ref() *db.Ref {
	return r.client.NewRef(r.root)
}

// FindByBarcode barcode bo'yicha indekslangan so'rov
func (r *rtdbProductRepository) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var found map[string]map[string]interface{}
	err := r.ref().OrderByChild("barcode").EqualTo(barcode).LimitToFirst(1).Get(ctx, &found)
	if err != nil {
		return nil, err
	}
	for id, fields := range found {
		p := productFromFields(id, fields)
		return &p, nil
	}
	return nil, repository.ErrProductNotFound
}

// GetByID ID bo'yicha mahsulot
func (r *rtdbProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var fields map[string]interface{}
	if err := r.ref().Child(id).Get(ctx, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, id)
	}
	p := productFromFields(id, fields)
	return &p, nil
}

// GetAll barcha mahsulotlar
func (r *rtdbProductRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	var all map[string]map[string]interface{}
	if err := r.ref().Get(ctx, &all); err != nil {
		return nil, err
	}
	products := make([]entity.Product, 0, len(all))
	for id, fields := range all {
		products = append(products, productFromFields(id, fields))
	}
	return products, nil
}

// UpdateCatalog butun tugunni almashtirish
func (r *rtdbProductRepository) UpdateCatalog(ctx context.Context, catalog entity.ProductCatalog) error {
	nodes := make(map[string]interface{}, len(catalog.Products))
	for _, p := range catalog.Products {
		fields := productFields(p)
		fields["updatedAt"] = p.UpdatedAt.Format(time.RFC3339)
		nodes[p.ID] = fields
	}
	if err := r.ref().Set(ctx, nodes); err != nil {
		return fmt.Errorf("rtdb catalog write: %w", err)
	}

	meta := map[string]interface{}{
		"source":    catalog.Source,
		"updatedAt": catalog.UpdatedAt.Format(time.RFC3339),
		"count":     len(catalog.Products),
	}
	return r.client.NewRef(catalogMetaRoot).Child(r.root).Set(ctx, meta)
}

// GetCatalog katalog va meta ma'lumot
func (r *rtdbProductRepository) GetCatalog(ctx context.Context) (*entity.ProductCatalog, error) {
	products, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var meta struct {
		Source    string `json:"source"`
		UpdatedAt string `json:"updatedAt"`
	}
	if err := r.client.NewRef(catalogMetaRoot).Child(r.root).Get(ctx, &meta); err != nil {
		return nil, err
	}
	if len(products) == 0 && meta.Source == "" {
		return nil, fmt.Errorf("catalog not found")
	}

	catalog := &entity.ProductCatalog{Products: products, Source: meta.Source}
	if catalog.Source == "" {
		catalog.Source = r.root
	}
	if t, err := time.Parse(time.RFC3339, meta.UpdatedAt); err == nil {
		catalog.UpdatedAt = t
	}
	return catalog, nil
}

// DecrementStock stock maydonini RTDB tranzaksiyasi bilan kamaytirish
func (r *rtdbProductRepository) DecrementStock(ctx context.Context, productID string, n int) error {
	return r.ref().Child(productID).Child("stock").Transaction(ctx, func(node db.TransactionNode) (interface{}, error) {
		var stock interface{}
		if err := node.Unmarshal(&stock); err != nil {
			return nil, err
		}
		current, _ := intField(stock)
		current -= n
		if current < 0 {
			current = 0
		}
		return current, nil
	})
}
