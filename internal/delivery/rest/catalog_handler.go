package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/usecase"
)

// AdminPasswordHeader HTTP admin endpointlari uchun parol
const AdminPasswordHeader = "X-Admin-Password"

const maxUploadSize = 32 << 20

// CatalogHandler katalog endpointlari
type CatalogHandler struct {
	products usecase.ProductUseCase
	admin    usecase.AdminUseCase
	logger   *zap.Logger
}

func NewCatalogHandler(products usecase.ProductUseCase, admin usecase.AdminUseCase, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{products: products, admin: admin, logger: logger}
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.products.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "CATALOG_UNAVAILABLE",
			Message: "Catalog could not be loaded",
			Details: err.Error(),
		})
		return
	}
	if products == nil {
		products = []entity.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// UploadCatalog handles POST /admin/catalog (multipart "file")
func (h *CatalogHandler) UploadCatalog(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Excel file is required in the \"file\" field",
			Details: err.Error(),
		})
		return
	}
	if fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "File is too large",
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: "File could not be read", Details: err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: "File could not be read", Details: err.Error()})
		return
	}

	count, err := h.admin.UploadCatalogWithPassword(c.Request.Context(), c.GetHeader(AdminPasswordHeader), data, fh.Filename)
	if errors.Is(err, usecase.ErrNotAdmin) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Message: "Admin password required"})
		return
	}
	if err != nil {
		h.logger.Warn("catalog upload failed", zap.String("file", fh.Filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "INVALID_CATALOG",
			Message: "Catalog could not be imported",
			Details: err.Error(),
		})
		return
	}

	h.logger.Info("catalog uploaded over http", zap.String("file", fh.Filename), zap.Int("products", count))
	c.JSON(http.StatusOK, CatalogUploadResponse{Products: count, Source: fh.Filename})
}
