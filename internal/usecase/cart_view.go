package usecase

import (
	"sort"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// DefaultRecentWindow "yaqinda qo'shilgan" belgisi uchun oyna
const DefaultRecentWindow = 5 * time.Second

// Total savat summasi minor birliklarda
func Total(state entity.CartState) entity.Money {
	var total entity.Money
	for _, item := range state.Items {
		total += item.LineTotal()
	}
	return total
}

// Count savatdagi turli pozitsiyalar soni ("Checkout (N items)")
func Count(state entity.CartState) int {
	return len(state.Items)
}

// Ordered ko'rsatish tartibi: oxirgi qo'shilgan birinchi
func Ordered(state entity.CartState) []entity.CartItem {
	items := make([]entity.CartItem, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.After(items[j].AddedAt)
		}
		ki, okI := entity.NumericKey(items[i].Key)
		kj, okJ := entity.NumericKey(items[j].Key)
		if okI && okJ {
			return ki > kj
		}
		if okI != okJ {
			return okI
		}
		return items[i].Key > items[j].Key
	})
	return items
}

// IsRecentlyAdded pozitsiya oxirgi window ichida qo'shilganmi.
// Boshqa qurilma soati oldinda bo'lsa (addedAt > now) ham yangi hisoblanadi.
func IsRecentlyAdded(now, addedAt time.Time, window time.Duration) bool {
	if addedAt.IsZero() {
		return false
	}
	return now.Sub(addedAt) <= window
}
