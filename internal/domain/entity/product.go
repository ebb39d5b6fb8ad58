package entity

import "time"

// Product mahsulot entity
type Product struct {
	ID          string            `json:"id"`
	Barcode     string            `json:"barcode"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Price       Money             `json:"price"`
	Description string            `json:"description,omitempty"`
	Stock       int               `json:"stock"`
	Image       string            `json:"image,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"` // Qo'shimcha ustunlar
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Scannable mahsulotni savatga qo'shish mumkinligi (narx musbat)
func (p Product) Scannable() bool {
	return p.Price > 0
}

// ProductCatalog mahsulotlar katalogi
type ProductCatalog struct {
	Products  []Product
	UpdatedAt time.Time
	Source    string // Excel fayl nomi yoki gs:// manzil
}
