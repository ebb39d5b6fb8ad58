package rest

import (
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/usecase"
)

// ErrorResponse barcha xatolik javoblari
type ErrorResponse struct {
	Error    string           `json:"error"`
	Message  string           `json:"message"`
	Details  string           `json:"details,omitempty"`
	Existing *entity.CartItem `json:"existing,omitempty"`
}

// ScanRequest POST /cart/scan
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// QuantityRequest PUT /cart/items/:key; 0 yoki manfiy pozitsiyani o'chiradi
type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartItemView ko'rsatish uchun pozitsiya
type CartItemView struct {
	entity.CartItem
	LineTotal     entity.Money `json:"lineTotal"`
	RecentlyAdded bool         `json:"recentlyAdded"`
}

// CartView GET /cart va SSE javobi
type CartView struct {
	Partition string         `json:"partition"`
	Version   string         `json:"version"`
	Items     []CartItemView `json:"items"`
	Total     entity.Money   `json:"total"`
	Count     int            `json:"count"`
}

func newCartView(snap entity.CartSnapshot, now time.Time, window time.Duration) CartView {
	ordered := usecase.Ordered(snap.State)
	items := make([]CartItemView, 0, len(ordered))
	for _, item := range ordered {
		items = append(items, CartItemView{
			CartItem:      item,
			LineTotal:     item.LineTotal(),
			RecentlyAdded: usecase.IsRecentlyAdded(now, item.AddedAt, window),
		})
	}
	return CartView{
		Partition: snap.Partition,
		Version:   snap.Version,
		Items:     items,
		Total:     usecase.Total(snap.State),
		Count:     usecase.Count(snap.State),
	}
}

// CatalogUploadResponse POST /admin/catalog
type CatalogUploadResponse struct {
	Products int    `json:"products"`
	Source   string `json:"source"`
}
