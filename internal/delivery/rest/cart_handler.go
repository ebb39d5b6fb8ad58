package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/usecase"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	streamBuffer        = 16
)

// CartHandler savat HTTP endpointlari
type CartHandler struct {
	cart         usecase.CartUseCase
	scans        usecase.ScanUseCase
	recentWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewCartHandler yangi handler; recentWindow <= 0 bo'lsa standart oyna
func NewCartHandler(cart usecase.CartUseCase, scans usecase.ScanUseCase, recentWindow time.Duration, logger *zap.Logger) *CartHandler {
	if recentWindow <= 0 {
		recentWindow = usecase.DefaultRecentWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		cart:         cart,
		scans:        scans,
		recentWindow: recentWindow,
		logger:       logger,
		now:          time.Now,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	snap, err := h.cart.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(*snap, h.now(), h.recentWindow))
}

// Scan handles POST /cart/scan
func (h *CartHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	outcome := h.scans.OnDecoded(c.Request.Context(), "http", req.Barcode)
	if outcome.OK() {
		status := http.StatusOK
		if outcome.Created {
			status = http.StatusCreated
		}
		c.JSON(status, outcome)
		return
	}

	c.JSON(statusForKind(outcome.ErrorKind), ErrorResponse{
		Error:    errorCode(outcome.ErrorKind),
		Message:  outcome.Message,
		Existing: outcome.Item,
	})
}

// SetQuantity handles PUT /cart/items/:key
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	item, removed, err := h.cart.SetQuantity(c.Request.Context(), c.Param("key"), *req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if removed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem handles DELETE /cart/items/:key
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.cart.RemoveItem(c.Request.Context(), c.Param("key")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History handles GET /scans?limit=
func (h *CartHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 || limit > maxHistoryLimit {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid limit",
			Details: "limit must be between 1 and " + strconv.Itoa(maxHistoryLimit),
		})
		return
	}

	records, err := h.scans.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if records == nil {
		records = []entity.ScanRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Stream handles GET /cart/stream (Server-Sent Events)
func (h *CartHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan entity.CartSnapshot, streamBuffer)

	unsubscribe, err := h.cart.Subscribe(ctx, func(snap entity.CartSnapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			// Sekin klient: eng eski holat tashlanadi
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer unsubscribe()

	h.logger.Debug("cart stream opened", zap.String("remote", c.ClientIP()))
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap := <-updates:
			c.SSEvent("cart", newCartView(snap, h.now(), h.recentWindow))
			return true
		}
	})
	h.logger.Debug("cart stream closed", zap.String("remote", c.ClientIP()))
}

func (h *CartHandler) writeError(c *gin.Context, err error) {
	var ce *entity.CartError
	if !errors.As(err, &ce) {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "INTERNAL",
			Message: "Internal error",
			Details: err.Error(),
		})
		return
	}

	resp := ErrorResponse{Error: errorCode(ce.Kind), Message: ce.Message, Existing: ce.Existing}
	if ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	c.JSON(statusForKind(ce.Kind), resp)
}

func statusForKind(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindProductNotFound, entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindInvalidProduct:
		return http.StatusUnprocessableEntity
	case entity.KindDuplicateItem, entity.KindConflict:
		return http.StatusConflict
	case entity.KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(kind entity.ErrorKind) string {
	if kind == "" {
		return "INTERNAL"
	}
	return string(kind)
}
