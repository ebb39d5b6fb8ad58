package usecase

import (
	"math"
	"strconv"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// DuplicatePolicy bir xil mahsulot qayta skanerlanganda nima qilish
type DuplicatePolicy string

const (
	// DuplicateReject holatni o'zgartirmaydi va DUPLICATE_ITEM qaytaradi
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateIncrement mavjud pozitsiya miqdorini 1 ga oshiradi
	DuplicateIncrement DuplicatePolicy = "increment"
)

// Valid policy qiymati to'g'riligini tekshirish
func (p DuplicatePolicy) Valid() bool {
	return p == DuplicateReject || p == DuplicateIncrement
}

// cartTransform partition holatidan yangi holatni hisoblaydi.
// Xatolik qaytarsa yozuv bekor qilinadi.
type cartTransform func(state entity.CartState) (entity.CartState, error)

// nextKey yangi kalit: saqlangan hisoblagich va mavjud raqamli kalitlarning
// eng kattasidan keyingisi. Raqamli bo'lmagan kalitlar va math.MaxInt64
// hisobga olinmaydi.
func nextKey(state entity.CartState) int64 {
	next := state.NextKey
	for key := range state.Items {
		if n, ok := entity.NumericKey(key); ok && n < math.MaxInt64 && n+1 > next {
			next = n + 1
		}
	}
	return next
}

// insertOrReject mahsulotni savatga qo'shish. Natijada qo'shilgan yoki
// o'zgargan pozitsiya va created belgisi out ga yoziladi.
func insertOrReject(product entity.Product, policy DuplicatePolicy, now time.Time, out *scanApply) cartTransform {
	return func(state entity.CartState) (entity.CartState, error) {
		if existing, ok := state.FindByProduct(product.ID); ok {
			if policy != DuplicateIncrement {
				dup := existing
				return state, &entity.CartError{
					Kind:     entity.KindDuplicateItem,
					Message:  entity.ErrMsgDuplicate,
					Barcode:  product.Barcode,
					Product:  product.Name,
					Key:      existing.Key,
					Existing: &dup,
				}
			}
			existing.Quantity++
			existing.UpdatedAt = now
			state.Items[existing.Key] = existing
			out.item, out.created = existing, false
			return state, nil
		}

		k := nextKey(state)
		if k < 0 || k == math.MaxInt64 {
			return state, &entity.CartError{
				Kind:    entity.KindConflict,
				Message: entity.ErrMsgKeysExhausted,
				Barcode: product.Barcode,
				Product: product.Name,
			}
		}
		item := entity.CartItem{
			Key:       strconv.FormatInt(k, 10),
			ProductID: product.ID,
			Name:      product.Name,
			Barcode:   product.Barcode,
			UnitPrice: product.Price,
			Quantity:  1,
			AddedAt:   now,
			UpdatedAt: now,
		}
		state.Items[item.Key] = item
		state.NextKey = k + 1
		out.item, out.created = item, true
		return state, nil
	}
}

type scanApply struct {
	item    entity.CartItem
	created bool
}

// setQuantityTransform miqdorni almashtirish; kalit atomik qadam ichida tekshiriladi
func setQuantityTransform(key string, qty int, now time.Time, out *entity.CartItem) cartTransform {
	return func(state entity.CartState) (entity.CartState, error) {
		item, ok := state.Items[key]
		if !ok {
			return state, notFound(key)
		}
		item.Quantity = qty
		item.UpdatedAt = now
		state.Items[key] = item
		*out = item
		return state, nil
	}
}

// removeTransform pozitsiyani o'chirish. NextKey kamaytirilmaydi.
func removeTransform(key string) cartTransform {
	return func(state entity.CartState) (entity.CartState, error) {
		if _, ok := state.Items[key]; !ok {
			return state, notFound(key)
		}
		delete(state.Items, key)
		return state, nil
	}
}

// clearTransform yangi savat hayotini boshlaydi: bo'sh xarita, hisoblagich 0
func clearTransform() cartTransform {
	return func(entity.CartState) (entity.CartState, error) {
		return entity.NewCartState(), nil
	}
}

func notFound(key string) error {
	return &entity.CartError{
		Kind:    entity.KindNotFound,
		Message: entity.ErrMsgItemNotFound,
		Key:     key,
	}
}
