package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

func TestMemoryProductRepository_FindByBarcode(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	err := repo.UpdateCatalog(ctx, entity.ProductCatalog{
		Source: "test.xlsx",
		Products: []entity.Product{
			{ID: "p1", Barcode: "111", Name: "Milk", Price: 1200, Stock: 2},
			{ID: "p2", Barcode: " 222 ", Name: "Bread", Price: 550},
			{ID: "p3", Barcode: "111", Name: "Shadowed", Price: 1},
		},
	})
	if err != nil {
		t.Fatalf("UpdateCatalog: %v", err)
	}

	tests := []struct {
		barcode string
		wantID  string
		wantErr error
	}{
		{"111", "p1", nil},
		{"222", "p2", nil},
		{" 222", "p2", nil},
		{"999", "", repository.ErrProductNotFound},
	}
	for _, tt := range tests {
		p, err := repo.FindByBarcode(ctx, tt.barcode)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FindByBarcode(%q): expected %v, got %v", tt.barcode, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FindByBarcode(%q): unexpected error %v", tt.barcode, err)
			continue
		}
		if p.ID != tt.wantID {
			t.Errorf("FindByBarcode(%q): expected %s, got %s", tt.barcode, tt.wantID, p.ID)
		}
	}
}

func TestMemoryProductRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()
	_ = repo.UpdateCatalog(ctx, entity.ProductCatalog{Products: []entity.Product{{ID: "p1", Barcode: "111", Price: 100, Stock: 1}}})

	if err := repo.DecrementStock(ctx, "p1", 1); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if err := repo.DecrementStock(ctx, "p1", 1); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	p, _ := repo.GetByID(ctx, "p1")
	if p.Stock != 0 {
		t.Errorf("stock should not go below zero, got %d", p.Stock)
	}

	if err := repo.DecrementStock(ctx, "missing", 1); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}

	catalog, err := repo.GetCatalog(ctx)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if len(catalog.Products) != 1 || catalog.Products[0].Stock != 0 {
		t.Errorf("catalog should reflect stock change: %+v", catalog.Products)
	}
}
