package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

type memoryProductRepository struct {
	mu        sync.RWMutex
	products  map[string]entity.Product // key: product ID
	byBarcode map[string]string         // barcode -> product ID
	catalog   *entity.ProductCatalog
}

// NewMemoryProductRepository in-memory product repository yaratish
func NewMemoryProductRepository() repository.ProductRepository {
	return &memoryProductRepository{
		products:  make(map[string]entity.Product),
		byBarcode: make(map[string]string),
	}
}

// FindByBarcode shtrix-kod bo'yicha mahsulotni olish
func (m *memoryProductRepository) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byBarcode[normalizeBarcode(barcode)]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	product := m.products[id]
	return &product, nil
}

// GetByID ID bo'yicha mahsulotni olish
func (m *memoryProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, exists := m.products[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, id)
	}
	return &product, nil
}

// GetAll barcha mahsulotlarni olish
func (m *memoryProductRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]entity.Product, 0, len(m.products))
	for _, product := range m.products {
		products = append(products, product)
	}

	return products, nil
}

// UpdateCatalog butun katalogni yangilash
func (m *memoryProductRepository) UpdateCatalog(ctx context.Context, catalog entity.ProductCatalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Eski mahsulotlarni o'chirish
	m.products = make(map[string]entity.Product, len(catalog.Products))
	m.byBarcode = make(map[string]string, len(catalog.Products))

	for _, product := range catalog.Products {
		m.products[product.ID] = product
		if code := normalizeBarcode(product.Barcode); code != "" {
			// Takroriy shtrix-kodda birinchisi qoladi
			if _, dup := m.byBarcode[code]; !dup {
				m.byBarcode[code] = product.ID
			}
		}
	}

	m.catalog = &catalog
	return nil
}

// GetCatalog katalogni olish
func (m *memoryProductRepository) GetCatalog(ctx context.Context) (*entity.ProductCatalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.catalog == nil {
		return nil, fmt.Errorf("catalog not found")
	}

	catalog := *m.catalog
	catalog.Products = make([]entity.Product, 0, len(m.products))
	for _, product := range m.products {
		catalog.Products = append(catalog.Products, product)
	}
	return &catalog, nil
}

// DecrementStock ombordagi sonni kamaytirish
func (m *memoryProductRepository) DecrementStock(ctx context.Context, productID string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, exists := m.products[productID]
	if !exists {
		return fmt.Errorf("%w: %s", repository.ErrProductNotFound, productID)
	}
	product.Stock -= n
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.UpdatedAt = time.Now()
	m.products[productID] = product
	return nil
}

func normalizeBarcode(code string) string {
	return strings.TrimSpace(code)
}
