package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/scan-pos/config"
	"github.com/yourusername/scan-pos/internal/delivery/rest"
	"github.com/yourusername/scan-pos/internal/delivery/telegram"
	"github.com/yourusername/scan-pos/internal/infrastructure/logging"
	"github.com/yourusername/scan-pos/internal/infrastructure/parser"
	"github.com/yourusername/scan-pos/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Konfiguratsiya xatosi: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger xatosi: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("scan-pos stopped with error", zap.Error(err))
	}
	logger.Info("scan-pos stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	infra, err := newInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	excelParser := parser.NewExcelParser(logger)
	if err := loadBootCatalog(ctx, cfg, infra, excelParser, logger); err != nil {
		return err
	}

	var opts []usecase.CartOption
	if infra.watcher != nil {
		opts = append(opts, usecase.WithWatcher(infra.watcher))
	}
	if infra.publisher != nil {
		opts = append(opts, usecase.WithPublisher(infra.publisher))
	}
	cart := usecase.NewCartUseCase(cfg.CartPartition, infra.cartRepo, infra.productRepo, cartPolicy(cfg), logger, opts...)

	notifiers := logging.MultiNotifier{logging.NewLogNotifier(logger)}

	var display *telegram.DisplayChat
	var bot *telegram.BotHandler
	botAPI, err := newBotAPI(cfg)
	if err != nil {
		return err
	}
	if botAPI != nil && cfg.DisplayChatID != 0 {
		display = telegram.NewDisplayChat(botAPI, cfg.DisplayChatID, cfg.RecentWindow, logger)
		notifiers = append(notifiers, display)
	}

	scanUseCase := usecase.NewScanUseCase(cart, infra.journal, notifiers, logger)
	productUseCase := usecase.NewProductUseCase(infra.productRepo)
	adminUseCase := usecase.NewAdminUseCase(cfg.AdminPassword, infra.adminRepo, infra.productRepo,
		excelParser, infra.catalogSource, cart, logger)

	if botAPI != nil {
		bot = telegram.NewBotHandler(botAPI, cart, scanUseCase, adminUseCase, productUseCase, cfg.RecentWindow, logger)
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := rest.NewRouter(
		rest.NewCartHandler(cart, scanUseCase, cfg.RecentWindow, logger),
		rest.NewCatalogHandler(productUseCase, adminUseCase, logger),
		logger,
	)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cart.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("http server listening",
			zap.String("addr", server.Addr),
			zap.String("partition", cfg.CartPartition),
			zap.String("cart_backend", cfg.CartBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			if err := bot.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if display != nil {
		g.Go(func() error {
			return display.Mirror(gctx, cart)
		})
	}

	return g.Wait()
}

func cartPolicy(cfg *config.Config) usecase.CartPolicy {
	policy := usecase.DefaultCartPolicy()
	policy.Duplicate = usecase.DuplicatePolicy(cfg.DuplicatePolicy)
	policy.DecrementStockOnScan = cfg.DecrementStockOnScan
	policy.EnforceStock = cfg.EnforceStock
	policy.MaxAttempts = cfg.MaxAttempts
	policy.TransportRetries = cfg.TransportRetries
	return policy
}
