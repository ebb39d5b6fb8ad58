package repository

import (
	"context"
	"errors"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// ErrVersionMismatch partition o'qilgandan keyin boshqa yozuv bo'lgan.
// Chaqiruvchi o'qish-tekshirish-yozish siklini qaytadan boshlashi kerak.
var ErrVersionMismatch = errors.New("cart version mismatch")

// CartRepository savat partitionini saqlash uchun interface.
// Butun partition bitta atomik qiymat: barcha o'zgarishlar CompareAndSwap
// orqali o'tadi.
type CartRepository interface {
	// Load joriy holat va versiyani olish. Partition yo'q bo'lsa bo'sh holat
	// va "" versiya qaytaradi.
	Load(ctx context.Context, partition string) (*entity.CartSnapshot, error)

	// CompareAndSwap versiya mos kelsa yangi holatni yozish.
	// expectedVersion "" bo'lsa partition hali mavjud bo'lmasligi kerak.
	// Mos kelmasa ErrVersionMismatch.
	CompareAndSwap(ctx context.Context, partition, expectedVersion string, next entity.CartState) (*entity.CartSnapshot, error)
}

// CartWatcher boshqa jarayonlar qilgan o'zgarishlarni kuzatish
type CartWatcher interface {
	// Watch ctx tugaguncha bloklanadi, har bir yangi holat uchun fn chaqiriladi
	Watch(ctx context.Context, partition string, fn func(entity.CartSnapshot)) error
}

// ChangePublisher tasdiqlangan o'zgarishni tashqariga e'lon qilish
type ChangePublisher interface {
	PublishCartChanged(ctx context.Context, snapshot entity.CartSnapshot) error
}

// Notifier skanerlash natijalarini ko'rsatish qatlamiga yetkazish
type Notifier interface {
	Notify(ctx context.Context, outcome entity.Outcome)
}
