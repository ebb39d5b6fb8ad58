package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/infrastructure/parser"
	"github.com/yourusername/scan-pos/internal/infrastructure/storage"
	"github.com/yourusername/scan-pos/internal/usecase"
)

const testPassword = "kassa-123"

type testServer struct {
	router *gin.Engine
	cart   usecase.CartUseCase
}

func newTestServer(t *testing.T, policy usecase.CartPolicy) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	products := storage.NewMemoryProductRepository()
	now := time.Now()
	err := products.UpdateCatalog(ctx, entity.ProductCatalog{
		Source:    "test",
		UpdatedAt: now,
		Products: []entity.Product{
			{ID: "p1", Barcode: "4780000000011", Name: "Non", Category: "Bakery", Price: 450000, Stock: 10},
			{ID: "p2", Barcode: "4780000000028", Name: "Sut", Category: "Dairy", Price: 1200000, Stock: 5},
			{ID: "p3", Barcode: "4780000000035", Name: "Sample", Category: "Other", Price: 0},
		},
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	logger := zap.NewNop()
	cart := usecase.NewCartUseCase("global", storage.NewMemoryCartRepository(), products, policy, logger)
	scans := usecase.NewScanUseCase(cart, storage.NewMemoryScanJournal(50), nil, logger)
	admin := usecase.NewAdminUseCase(testPassword, storage.NewMemoryAdminRepository(), products,
		parser.NewExcelParser(logger), nil, cart, logger)

	router := NewRouter(
		NewCartHandler(cart, scans, 0, logger),
		NewCatalogHandler(usecase.NewProductUseCase(products), admin, logger),
		logger,
	)
	return &testServer{router: router, cart: cart}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, usecase.DefaultCartPolicy())
	w := s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestScanFlow(t *testing.T) {
	s := newTestServer(t, usecase.DefaultCartPolicy())

	w := s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	outcome := decode[entity.Outcome](t, w)
	if outcome.Item == nil || outcome.Item.Key != "0" || outcome.ProductName != "Non" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}

	// Qayta skanerlash rad etiladi
	w = s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	dup := decode[ErrorResponse](t, w)
	if dup.Error != string(entity.KindDuplicateItem) || dup.Existing == nil || dup.Existing.Key != "0" {
		t.Errorf("unexpected duplicate response: %+v", dup)
	}

	w = s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"0000"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown barcode: expected 404, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000035"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero price: expected 422, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/cart/scan", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing barcode: expected 400, got %d", w.Code)
	}

	s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000028"}`)

	w = s.do(t, http.MethodGet, "/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	view := decode[CartView](t, w)
	if view.Count != 2 {
		t.Errorf("count = %d, want 2", view.Count)
	}
	if view.Total != 1650000 {
		t.Errorf("total = %d, want 1650000", view.Total)
	}
	if len(view.Items) != 2 || !view.Items[0].RecentlyAdded {
		t.Fatalf("unexpected items: %+v", view.Items)
	}

	w = s.do(t, http.MethodGet, "/scans?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("scans: expected 200, got %d", w.Code)
	}
	if records := decode[[]entity.ScanRecord](t, w); len(records) != 5 {
		t.Errorf("expected 5 journal records, got %d", len(records))
	}

	if w := s.do(t, http.MethodGet, "/scans?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestScanIncrementReturnsOK(t *testing.T) {
	policy := usecase.DefaultCartPolicy()
	policy.Duplicate = usecase.DuplicateIncrement
	s := newTestServer(t, policy)

	s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	w := s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if outcome := decode[entity.Outcome](t, w); outcome.Item == nil || outcome.Item.Quantity != 2 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestItemEndpoints(t *testing.T) {
	s := newTestServer(t, usecase.DefaultCartPolicy())
	s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000028"}`)

	w := s.do(t, http.MethodPut, "/cart/items/0", `{"quantity":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if item := decode[entity.CartItem](t, w); item.Quantity != 4 {
		t.Errorf("quantity = %d, want 4", item.Quantity)
	}

	if w := s.do(t, http.MethodPut, "/cart/items/0", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing quantity: expected 400, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/cart/items/42", `{"quantity":1}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown key: expected 404, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/cart/items/0", `{"quantity":0}`); w.Code != http.StatusNoContent {
		t.Errorf("zero quantity: expected 204, got %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/cart/items/0", ""); w.Code != http.StatusNotFound {
		t.Errorf("removed key: expected 404, got %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/cart/items/1", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}

	s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`)
	if w := s.do(t, http.MethodDelete, "/cart", ""); w.Code != http.StatusNoContent {
		t.Fatalf("clear: expected 204, got %d", w.Code)
	}
	view := decode[CartView](t, s.do(t, http.MethodGet, "/cart", ""))
	if view.Count != 0 || view.Total != 0 {
		t.Errorf("cart not empty after clear: %+v", view)
	}
}

func TestProductsAndCatalogUpload(t *testing.T) {
	s := newTestServer(t, usecase.DefaultCartPolicy())

	w := s.do(t, http.MethodGet, "/products", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if products := decode[[]entity.Product](t, w); len(products) != 3 {
		t.Errorf("expected 3 products, got %d", len(products))
	}

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Barcode", "Name", "Price", "Stock"},
		{"4780000000042", "Choy", "15000", 3},
		{"4780000000059", "Shakar", "12500.50", 8},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	upload := func(password string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("file", "catalog.xlsx")
		part.Write(xlsx.Bytes())
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/admin/catalog", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if password != "" {
			req.Header.Set(AdminPasswordHeader, password)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	if w := upload("wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", w.Code)
	}

	w = upload(testPassword)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[CatalogUploadResponse](t, w); resp.Products != 2 {
		t.Errorf("products = %d, want 2", resp.Products)
	}

	if w := s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000059"}`); w.Code != http.StatusCreated {
		t.Errorf("scan of uploaded product: expected 201, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/cart/scan", `{"barcode":"4780000000011"}`); w.Code != http.StatusNotFound {
		t.Errorf("replaced catalog: expected 404, got %d", w.Code)
	}
}

func TestCartStream(t *testing.T) {
	s := newTestServer(t, usecase.DefaultCartPolicy())
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/cart/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	events := make(chan CartView, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				var view CartView
				if json.Unmarshal([]byte(data), &view) == nil {
					events <- view
				}
			}
		}
		close(events)
	}()

	next := func() CartView {
		select {
		case v, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return v
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return CartView{}
	}

	if first := next(); first.Count != 0 {
		t.Errorf("initial snapshot should be empty, got %+v", first)
	}

	if _, err := s.cart.AddScannedItem(context.Background(), "4780000000011"); err != nil {
		t.Fatalf("AddScannedItem: %v", err)
	}
	if second := next(); second.Count != 1 || second.Items[0].Name != "Non" {
		t.Errorf("unexpected update: %+v", second)
	}
}
