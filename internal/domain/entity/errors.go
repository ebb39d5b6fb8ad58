package entity

import (
	"errors"
	"fmt"
)

// ErrorKind savat operatsiyalari xatolik turlari
type ErrorKind string

const (
	KindProductNotFound ErrorKind = "PRODUCT_NOT_FOUND"
	KindInvalidProduct  ErrorKind = "INVALID_PRODUCT"
	KindDuplicateItem   ErrorKind = "DUPLICATE_ITEM"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindTransport       ErrorKind = "TRANSPORT_ERROR"
)

// Error messages
const (
	ErrMsgProductNotFound = "no product with this barcode"
	ErrMsgNoPrice         = "product has no usable price"
	ErrMsgOutOfStock      = "product is out of stock"
	ErrMsgDuplicate       = "product is already in the cart"
	ErrMsgItemNotFound    = "cart item not found"
	ErrMsgConflict        = "cart changed concurrently, retries exhausted"
	ErrMsgTransport       = "cart storage unavailable"
	ErrMsgKeysExhausted   = "no free cart item key left"
)

// CartError foydalanuvchiga ko'rsatiladigan domain xatolik
type CartError struct {
	Kind     ErrorKind
	Message  string
	Barcode  string
	Key      string
	Product  string    // mahsulot nomi, ma'lum bo'lsa
	Existing *CartItem // DUPLICATE_ITEM uchun mavjud pozitsiya
	Err      error
}

func (e *CartError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	switch {
	case e.Barcode != "":
		msg += fmt.Sprintf(" (barcode %s)", e.Barcode)
	case e.Key != "":
		msg += fmt.Sprintf(" (key %s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CartError) Unwrap() error {
	return e.Err
}

// KindOf xatolik turini aniqlash; CartError bo'lmasa bo'sh qaytaradi
func KindOf(err error) ErrorKind {
	var ce *CartError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
