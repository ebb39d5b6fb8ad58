package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter barcha marshrutlar
func NewRouter(cart *CartHandler, catalog *CatalogHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/cart", cart.GetCart)
	router.DELETE("/cart", cart.Clear)
	router.POST("/cart/scan", cart.Scan)
	router.PUT("/cart/items/:key", cart.SetQuantity)
	router.DELETE("/cart/items/:key", cart.RemoveItem)
	router.GET("/cart/stream", cart.Stream)
	router.GET("/scans", cart.History)

	router.GET("/products", catalog.ListProducts)
	router.POST("/admin/catalog", catalog.UploadCatalog)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
