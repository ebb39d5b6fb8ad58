package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// ProductUseCase mahsulot bilan bog'liq business logic
type ProductUseCase interface {
	// FindByBarcode shtrix-kod bo'yicha mahsulot
	FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error)

	// GetAll barcha mahsulotlarni olish
	GetAll(ctx context.Context) ([]entity.Product, error)

	// GetProductsAsText mahsulotlarni kategoriya bo'yicha text formatda olish
	GetProductsAsText(ctx context.Context) (string, error)

	// HasProducts mahsulotlar borligini tekshirish
	HasProducts(ctx context.Context) (bool, error)
}

type productUseCase struct {
	productRepo repository.ProductRepository
}

// NewProductUseCase yangi ProductUseCase yaratish
func NewProductUseCase(productRepo repository.ProductRepository) ProductUseCase {
	return &productUseCase{
		productRepo: productRepo,
	}
}

// FindByBarcode shtrix-kod bo'yicha mahsulot
func (u *productUseCase) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return u.productRepo.FindByBarcode(ctx, strings.TrimSpace(barcode))
}

// GetAll barcha mahsulotlarni olish
func (u *productUseCase) GetAll(ctx context.Context) ([]entity.Product, error) {
	products, err := u.productRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// GetProductsAsText mahsulotlarni text formatda olish
func (u *productUseCase) GetProductsAsText(ctx context.Context) (string, error) {
	products, err := u.GetAll(ctx)
	if err != nil {
		return "", err
	}

	if len(products) == 0 {
		return "", fmt.Errorf("no products available")
	}

	// Kategoriyalar bo'yicha guruhlash
	categoryMap := make(map[string][]entity.Product)
	var categories []string
	for _, product := range products {
		category := product.Category
		if category == "" {
			category = "Boshqa"
		}
		if _, ok := categoryMap[category]; !ok {
			categories = append(categories, category)
		}
		categoryMap[category] = append(categoryMap[category], product)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("📂 %s:\n", category))
		for i, p := range categoryMap[category] {
			sb.WriteString(fmt.Sprintf("%d. %s - %s [%s]", i+1, p.Name, p.Price, p.Barcode))
			if p.Stock > 0 {
				sb.WriteString(fmt.Sprintf(" (Omborda: %d)", p.Stock))
			}
			if !p.Scannable() {
				sb.WriteString(" ⚠️ narx yo'q")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// HasProducts mahsulotlar borligini tekshirish
func (u *productUseCase) HasProducts(ctx context.Context) (bool, error) {
	products, err := u.productRepo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}
