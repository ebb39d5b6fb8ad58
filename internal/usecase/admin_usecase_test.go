package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
	"github.com/yourusername/scan-pos/internal/infrastructure/storage"
)

type stubParser struct {
	products []entity.Product
	err      error
	sources  []string
}

func (p *stubParser) ParseProducts(ctx context.Context, filePath string) ([]entity.Product, error) {
	return p.ParseProductsFromBytes(ctx, nil, filePath)
}

func (p *stubParser) ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Product, error) {
	p.sources = append(p.sources, filename)
	return p.products, p.err
}

type stubSource struct {
	uri string
}

func (s *stubSource) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	s.uri = uri
	if !strings.HasPrefix(uri, "gs://") {
		return nil, "", errors.New("unsupported uri")
	}
	return []byte("xlsx"), "catalog.xlsx", nil
}

type adminFixture struct {
	admin    AdminUseCase
	products repository.ProductRepository
	cart     CartUseCase
	parser   *stubParser
	source   *stubSource
}

func newAdminFixture(t *testing.T, password string, withSource bool) adminFixture {
	t.Helper()
	f := adminFixture{
		products: newTestCatalog(t, testProduct("p1", "111", 1200)),
		parser: &stubParser{products: []entity.Product{
			{ID: "a", Barcode: "4780000000017", Name: "Non", Price: 400000, Category: "Bakery"},
			{ID: "b", Barcode: "", Name: "Choy", Price: 0, Category: "Drinks"},
		}},
	}
	f.cart = newTestCart(t, storage.NewMemoryCartRepository(), f.products, fastPolicy())

	var source repository.CatalogSource
	if withSource {
		f.source = &stubSource{}
		source = f.source
	}
	f.admin = NewAdminUseCase(password, storage.NewMemoryAdminRepository(), f.products, f.parser, source, f.cart, nil)
	return f
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t, "s3cret", false)

	ok, err := f.admin.Login(ctx, 7, "wrong")
	if err != nil || ok {
		t.Errorf("wrong password: ok=%v err=%v", ok, err)
	}
	if isAdmin, _ := f.admin.IsAdmin(ctx, 7); isAdmin {
		t.Error("user became admin with wrong password")
	}

	ok, err = f.admin.Login(ctx, 7, " s3cret ")
	if err != nil || !ok {
		t.Fatalf("correct password: ok=%v err=%v", ok, err)
	}
	if isAdmin, _ := f.admin.IsAdmin(ctx, 7); !isAdmin {
		t.Error("expected admin after login")
	}

	if err := f.admin.Logout(ctx, 7); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if isAdmin, _ := f.admin.IsAdmin(ctx, 7); isAdmin {
		t.Error("still admin after logout")
	}
}

func TestAdminLogin_EmptyPasswordDisablesLogin(t *testing.T) {
	f := newAdminFixture(t, "", false)
	if ok, _ := f.admin.Login(context.Background(), 1, ""); ok {
		t.Error("login succeeded with empty configured password")
	}
	if f.admin.CheckPassword("") {
		t.Error("CheckPassword accepted empty password")
	}
}

func TestAdminUploadCatalog(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t, "s3cret", false)

	if _, err := f.admin.UploadCatalog(ctx, 7, []byte("x"), "new.xlsx"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	if _, err := f.admin.Login(ctx, 7, "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	count, err := f.admin.UploadCatalog(ctx, 7, []byte("x"), "new.xlsx")
	if err != nil {
		t.Fatalf("UploadCatalog: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if _, err := f.products.FindByBarcode(ctx, "111"); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("old catalog should be replaced, got %v", err)
	}
	if p, err := f.products.FindByBarcode(ctx, "4780000000017"); err != nil || p.Name != "Non" {
		t.Errorf("new product lookup: %v %v", p, err)
	}

	info, err := f.admin.GetCatalogInfo(ctx)
	if err != nil {
		t.Fatalf("GetCatalogInfo: %v", err)
	}
	for _, want := range []string{"new.xlsx", "Jami mahsulotlar: 2", "Shtrix-kodsiz: 1", "Narxsiz: 1", "Bakery: 1", "upload_catalog"} {
		if !strings.Contains(info, want) {
			t.Errorf("catalog info missing %q:\n%s", want, info)
		}
	}
}

func TestAdminUploadCatalogWithPassword(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t, "s3cret", false)

	if _, err := f.admin.UploadCatalogWithPassword(ctx, "nope", []byte("x"), "a.xlsx"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin, got %v", err)
	}

	f.parser.products = nil
	if _, err := f.admin.UploadCatalogWithPassword(ctx, "s3cret", []byte("x"), "a.xlsx"); err == nil {
		t.Error("expected error for empty catalog")
	}
	// Muvaffaqiyatsiz yuklash eski katalogni saqlaydi
	if _, err := f.products.FindByBarcode(ctx, "111"); err != nil {
		t.Errorf("previous catalog lost: %v", err)
	}
}

func TestAdminImportCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		f := newAdminFixture(t, "s3cret", false)
		_, _ = f.admin.Login(ctx, 1, "s3cret")
		if _, err := f.admin.ImportCatalog(ctx, 1, "gs://bucket/catalog.xlsx"); err == nil {
			t.Error("expected error without catalog source")
		}
	})

	t.Run("imports from source", func(t *testing.T) {
		f := newAdminFixture(t, "s3cret", true)
		_, _ = f.admin.Login(ctx, 1, "s3cret")
		count, err := f.admin.ImportCatalog(ctx, 1, "gs://bucket/catalog.xlsx")
		if err != nil {
			t.Fatalf("ImportCatalog: %v", err)
		}
		if count != 2 || f.source.uri != "gs://bucket/catalog.xlsx" {
			t.Errorf("count=%d uri=%q", count, f.source.uri)
		}
		if len(f.parser.sources) != 1 || f.parser.sources[0] != "catalog.xlsx" {
			t.Errorf("parser sources = %v", f.parser.sources)
		}
	})

	t.Run("fetch error", func(t *testing.T) {
		f := newAdminFixture(t, "s3cret", true)
		_, _ = f.admin.Login(ctx, 1, "s3cret")
		if _, err := f.admin.ImportCatalog(ctx, 1, "https://example.com/x.xlsx"); err == nil {
			t.Error("expected fetch error")
		}
	})
}

func TestAdminClearCart(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t, "s3cret", false)
	if _, err := f.cart.AddScannedItem(ctx, "111"); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if err := f.admin.ClearCart(ctx, 9); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin, got %v", err)
	}
	snap, _ := f.cart.Snapshot(ctx)
	if len(snap.State.Items) != 1 {
		t.Fatal("cart cleared without admin session")
	}

	_, _ = f.admin.Login(ctx, 9, "s3cret")
	if err := f.admin.ClearCart(ctx, 9); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	snap, _ = f.cart.Snapshot(ctx)
	if len(snap.State.Items) != 0 {
		t.Errorf("cart has %d items after clear", len(snap.State.Items))
	}
}

func TestProductUseCase(t *testing.T) {
	ctx := context.Background()
	products := newTestCatalog(t,
		entity.Product{ID: "1", Barcode: "111", Name: "Zaytun", Price: 900, Category: "Oziq"},
		entity.Product{ID: "2", Barcode: "222", Name: "Anor", Price: 0, Category: "Meva", Stock: 4},
	)
	uc := NewProductUseCase(products)

	all, err := uc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Anor" {
		t.Errorf("GetAll should sort by name: %+v", all)
	}

	text, err := uc.GetProductsAsText(ctx)
	if err != nil {
		t.Fatalf("GetProductsAsText: %v", err)
	}
	for _, want := range []string{"📂 Meva:", "Anor - 0.00 [222] (Omborda: 4) ⚠️ narx yo'q", "Zaytun - 9.00 [111]"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}

	if has, _ := uc.HasProducts(ctx); !has {
		t.Error("HasProducts = false")
	}
	if p, err := uc.FindByBarcode(ctx, " 111 "); err != nil || p.ID != "1" {
		t.Errorf("FindByBarcode: %v %v", p, err)
	}
}
