package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// ErrNotAdmin foydalanuvchi admin emas
var ErrNotAdmin = errors.New("user is not admin")

// AdminUseCase admin bilan bog'liq business logic
type AdminUseCase interface {
	// Login admin login qilish
	Login(ctx context.Context, userID int64, password string) (bool, error)

	// Logout admin logout qilish
	Logout(ctx context.Context, userID int64) error

	// IsAdmin admin ekanligini tekshirish
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// CheckPassword parolni tekshirish (HTTP admin endpointlari uchun)
	CheckPassword(password string) bool

	// UploadCatalog Excel fayldan katalogni yuklash
	UploadCatalog(ctx context.Context, userID int64, fileData []byte, filename string) (int, error)

	// UploadCatalogWithPassword sessiyasiz (HTTP) yuklash; parol noto'g'ri bo'lsa ErrNotAdmin
	UploadCatalogWithPassword(ctx context.Context, password string, fileData []byte, filename string) (int, error)

	// ImportCatalog tashqi manzildan (gs://...) katalogni yuklash
	ImportCatalog(ctx context.Context, userID int64, uri string) (int, error)

	// GetCatalogInfo katalog haqida ma'lumot
	GetCatalogInfo(ctx context.Context) (string, error)

	// ClearCart savatni tozalash
	ClearCart(ctx context.Context, userID int64) error
}

type adminUseCase struct {
	password      string
	adminRepo     repository.AdminRepository
	productRepo   repository.ProductRepository
	excelParser   repository.ExcelParser
	catalogSource repository.CatalogSource
	cart          CartUseCase
	logger        *zap.Logger
}

// NewAdminUseCase yangi AdminUseCase yaratish. password bo'sh bo'lsa login o'chiriladi;
// catalogSource nil bo'lishi mumkin.
func NewAdminUseCase(
	password string,
	adminRepo repository.AdminRepository,
	productRepo repository.ProductRepository,
	excelParser repository.ExcelParser,
	catalogSource repository.CatalogSource,
	cart CartUseCase,
	logger *zap.Logger,
) AdminUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adminUseCase{
		password:      password,
		adminRepo:     adminRepo,
		productRepo:   productRepo,
		excelParser:   excelParser,
		catalogSource: catalogSource,
		cart:          cart,
		logger:        logger,
	}
}

// CheckPassword parolni tekshirish
func (u *adminUseCase) CheckPassword(password string) bool {
	if u.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(u.password)) == 1
}

// Login admin login qilish
func (u *adminUseCase) Login(ctx context.Context, userID int64, password string) (bool, error) {
	if !u.CheckPassword(strings.TrimSpace(password)) {
		return false, nil
	}

	session := entity.AdminSession{
		UserID:       userID,
		IsAdmin:      true,
		LoginTime:    time.Now(),
		LastActivity: time.Now(),
	}

	if err := u.adminRepo.CreateSession(ctx, session); err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}

	u.logAction(ctx, userID, "login", "Admin successfully logged in")
	return true, nil
}

// Logout admin logout qilish
func (u *adminUseCase) Logout(ctx context.Context, userID int64) error {
	return u.adminRepo.DeleteSession(ctx, userID)
}

// IsAdmin admin ekanligini tekshirish
func (u *adminUseCase) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return u.adminRepo.IsAdmin(ctx, userID)
}

func (u *adminUseCase) requireAdmin(ctx context.Context, userID int64) error {
	isAdmin, err := u.adminRepo.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}

// UploadCatalog Excel fayldan katalogni yuklash
func (u *adminUseCase) UploadCatalog(ctx context.Context, userID int64, fileData []byte, filename string) (int, error) {
	if err := u.requireAdmin(ctx, userID); err != nil {
		return 0, err
	}

	count, err := u.replaceCatalog(ctx, fileData, filename)
	if err != nil {
		return 0, err
	}

	u.logAction(ctx, userID, "upload_catalog", fmt.Sprintf("Uploaded %d products from %s", count, filename))
	return count, nil
}

// UploadCatalogWithPassword parol bilan katalog yuklash
func (u *adminUseCase) UploadCatalogWithPassword(ctx context.Context, password string, fileData []byte, filename string) (int, error) {
	if !u.CheckPassword(password) {
		return 0, ErrNotAdmin
	}

	count, err := u.replaceCatalog(ctx, fileData, filename)
	if err != nil {
		return 0, err
	}

	u.logAction(ctx, 0, "upload_catalog_http", fmt.Sprintf("Uploaded %d products from %s", count, filename))
	return count, nil
}

// ImportCatalog tashqi manzildan katalogni yuklash
func (u *adminUseCase) ImportCatalog(ctx context.Context, userID int64, uri string) (int, error) {
	if err := u.requireAdmin(ctx, userID); err != nil {
		return 0, err
	}
	if u.catalogSource == nil {
		return 0, fmt.Errorf("catalog import is not configured")
	}

	data, filename, err := u.catalogSource.Fetch(ctx, uri)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}

	count, err := u.replaceCatalog(ctx, data, filename)
	if err != nil {
		return 0, err
	}

	u.logAction(ctx, userID, "import_catalog", fmt.Sprintf("Imported %d products from %s", count, uri))
	return count, nil
}

func (u *adminUseCase) replaceCatalog(ctx context.Context, data []byte, source string) (int, error) {
	products, err := u.excelParser.ParseProductsFromBytes(ctx, data, source)
	if err != nil {
		return 0, fmt.Errorf("failed to parse excel: %w", err)
	}

	if len(products) == 0 {
		return 0, fmt.Errorf("no products found in excel file")
	}

	catalog := entity.ProductCatalog{
		Products:  products,
		UpdatedAt: time.Now(),
		Source:    source,
	}

	if err := u.productRepo.UpdateCatalog(ctx, catalog); err != nil {
		return 0, fmt.Errorf("failed to update catalog: %w", err)
	}
	return len(products), nil
}

// GetCatalogInfo katalog haqida ma'lumot
func (u *adminUseCase) GetCatalogInfo(ctx context.Context) (string, error) {
	catalog, err := u.productRepo.GetCatalog(ctx)
	if err != nil {
		return "", err
	}

	// Kategoriyalarni sanash
	categories := make(map[string]int)
	noBarcode, noPrice := 0, 0
	for _, product := range catalog.Products {
		categories[product.Category]++
		if product.Barcode == "" {
			noBarcode++
		}
		if !product.Scannable() {
			noPrice++
		}
	}
	names := make([]string, 0, len(categories))
	for cat := range categories {
		names = append(names, cat)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 Katalog: %s\n", catalog.Source))
	sb.WriteString(fmt.Sprintf("📅 Yangilangan: %s\n", catalog.UpdatedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("📊 Jami mahsulotlar: %d\n", len(catalog.Products)))
	if noBarcode > 0 {
		sb.WriteString(fmt.Sprintf("⚠️ Shtrix-kodsiz: %d ta\n", noBarcode))
	}
	if noPrice > 0 {
		sb.WriteString(fmt.Sprintf("⚠️ Narxsiz: %d ta\n", noPrice))
	}
	sb.WriteString("\n📂 Kategoriyalar:\n")
	for _, cat := range names {
		sb.WriteString(fmt.Sprintf("  • %s: %d ta\n", cat, categories[cat]))
	}

	if actions, err := u.adminRepo.RecentActions(ctx, 5); err == nil && len(actions) > 0 {
		sb.WriteString("\n🕘 Oxirgi harakatlar:\n")
		for _, a := range actions {
			sb.WriteString(fmt.Sprintf("  • %s %s: %s\n", a.Timestamp.Format("01-02 15:04"), a.Action, a.Details))
		}
	}

	return sb.String(), nil
}

// ClearCart savatni tozalash
func (u *adminUseCase) ClearCart(ctx context.Context, userID int64) error {
	if err := u.requireAdmin(ctx, userID); err != nil {
		return err
	}

	if err := u.cart.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	u.logAction(ctx, userID, "clear_cart", "Cleared cart "+u.cart.Partition())
	return nil
}

func (u *adminUseCase) logAction(ctx context.Context, userID int64, action, details string) {
	a := entity.AdminAction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}
	if u.cart != nil {
		a.Partition = u.cart.Partition()
	}
	if err := u.adminRepo.LogAction(ctx, a); err != nil {
		u.logger.Warn("admin action log failed", zap.String("action", action), zap.Error(err))
	}
}
