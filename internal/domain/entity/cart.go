package entity

import (
	"strconv"
	"time"
)

// CartItem savatdagi bitta pozitsiya
type CartItem struct {
	Key       string    `json:"key"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Barcode   string    `json:"barcode"`
	UnitPrice Money     `json:"unitPrice"` // qo'shilgan paytdagi narx
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LineTotal pozitsiya summasi
func (i CartItem) LineTotal() Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// CartState bitta partition ichidagi butun qiymat. NextKey shu qiymat bilan
// birga atomik yoziladi.
type CartState struct {
	Items   map[string]CartItem `json:"items"`
	NextKey int64               `json:"nextKey"`
}

// NewCartState bo'sh savat
func NewCartState() CartState {
	return CartState{Items: make(map[string]CartItem)}
}

// Clone chuqur nusxa; transformatsiyalar asl snapshotni o'zgartirmaydi
func (s CartState) Clone() CartState {
	out := CartState{Items: make(map[string]CartItem, len(s.Items)), NextKey: s.NextKey}
	for k, v := range s.Items {
		out.Items[k] = v
	}
	return out
}

// FindByProduct productID bo'yicha pozitsiyani topish
func (s CartState) FindByProduct(productID string) (CartItem, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// CartSnapshot storage dan o'qilgan holat va uning versiyasi
type CartSnapshot struct {
	Partition string    `json:"partition"`
	Version   string    `json:"version"`
	State     CartState `json:"state"`
}

// NumericKey kalitni son sifatida o'qish
func NumericKey(key string) (int64, bool) {
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
