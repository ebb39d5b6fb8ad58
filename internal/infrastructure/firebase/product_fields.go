package firebaseinfra

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// productFromFields hujjat maydonlaridan mahsulot. Eski yozuvlarda narx
// "regularPrice" nomi bilan saqlangan; ikkalasi bo'lsa "price" ustun.
func productFromFields(id string, fields map[string]interface{}) entity.Product {
	p := entity.Product{
		ID:          id,
		Barcode:     stringField(fields["barcode"]),
		Name:        stringField(fields["name"]),
		Category:    stringField(fields["category"]),
		Description: stringField(fields["description"]),
		Image:       stringField(fields["image"]),
	}
	if v, ok := fields["id"]; ok && stringField(v) != "" && p.ID == "" {
		p.ID = stringField(v)
	}

	if v, ok := fields["price"]; ok && v != nil {
		p.Price = moneyField(v)
	} else if v, ok := fields["regularPrice"]; ok {
		p.Price = moneyField(v)
	}

	if n, ok := intField(fields["stock"]); ok && n > 0 {
		p.Stock = n
	}
	if t, ok := fields["updatedAt"].(time.Time); ok {
		p.UpdatedAt = t
	}
	return p
}

// productFields mahsulotni saqlash uchun maydonlar; narx asosiy birlikda raqam
func productFields(p entity.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"barcode":     p.Barcode,
		"name":        p.Name,
		"category":    p.Category,
		"description": p.Description,
		"image":       p.Image,
		"price":       p.Price.Decimal().InexactFloat64(),
		"stock":       p.Stock,
		"updatedAt":   p.UpdatedAt,
	}
}

func stringField(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func moneyField(v interface{}) entity.Money {
	switch x := v.(type) {
	case int64:
		return entity.Money(x * 100)
	case int:
		return entity.Money(int64(x) * 100)
	case float64:
		return entity.MoneyFromFloat(x)
	case string:
		m, err := entity.ParseMoney(x)
		if err != nil {
			return 0
		}
		return m
	default:
		return 0
	}
}

func intField(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case int:
		return x, true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}
