package repository

import (
	"context"
	"errors"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// ErrProductNotFound shtrix-kod yoki ID bo'yicha mahsulot yo'q
var ErrProductNotFound = errors.New("product not found")

// ProductRepository mahsulotlar bilan ishlash uchun interface
type ProductRepository interface {
	// FindByBarcode shtrix-kod bo'yicha mahsulotni olish; topilmasa ErrProductNotFound
	FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error)

	// GetByID ID bo'yicha mahsulotni olish
	GetByID(ctx context.Context, id string) (*entity.Product, error)

	// GetAll barcha mahsulotlarni olish
	GetAll(ctx context.Context) ([]entity.Product, error)

	// UpdateCatalog butun katalogni yangilash
	UpdateCatalog(ctx context.Context, catalog entity.ProductCatalog) error

	// GetCatalog katalogni olish
	GetCatalog(ctx context.Context) (*entity.ProductCatalog, error)

	// DecrementStock ombordagi sonni n ga kamaytirish (0 dan pastga tushmaydi)
	DecrementStock(ctx context.Context, productID string, n int) error
}
