package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/db"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/config"
	"github.com/yourusername/scan-pos/internal/delivery/telegram"
	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
	firebaseinfra "github.com/yourusername/scan-pos/internal/infrastructure/firebase"
	"github.com/yourusername/scan-pos/internal/infrastructure/gcs"
	"github.com/yourusername/scan-pos/internal/infrastructure/rabbitmq"
	infrastorage "github.com/yourusername/scan-pos/internal/infrastructure/storage"
)

// infra tanlangan backendlar va ularni yopish funksiyalari
type infra struct {
	cartRepo      repository.CartRepository
	watcher       repository.CartWatcher
	publisher     repository.ChangePublisher
	productRepo   repository.ProductRepository
	adminRepo     repository.AdminRepository
	journal       repository.ScanJournal
	catalogSource repository.CatalogSource

	closers []func()
}

func (i *infra) onClose(fn func()) {
	i.closers = append(i.closers, fn)
}

// Close teskari tartibda yopish
func (i *infra) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func newInfra(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *infra, err error) {
	in := &infra{adminRepo: infrastorage.NewMemoryAdminRepository()}
	defer func() {
		if err != nil {
			in.Close()
		}
	}()

	var fsClient *firestore.Client
	var rtdbClient *db.Client
	if cfg.UsesFirebase() {
		app, err := firebaseinfra.NewApp(ctx, firebaseinfra.Config{
			ProjectID:       cfg.FirebaseProjectID,
			DatabaseURL:     cfg.FirebaseDatabaseURL,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		if cfg.CartBackend == config.BackendFirestore || cfg.CatalogBackend == config.BackendFirestore {
			if fsClient, err = app.Firestore(ctx); err != nil {
				return nil, err
			}
			in.onClose(func() { fsClient.Close() })
		}
		if cfg.CartBackend == config.BackendRTDB || cfg.CatalogBackend == config.BackendRTDB {
			if rtdbClient, err = app.Database(ctx); err != nil {
				return nil, err
			}
		}
	}

	var sqlDB *sql.DB
	switch cfg.CartBackend {
	case config.BackendMemory:
		in.cartRepo = infrastorage.NewMemoryCartRepository()
	case config.BackendSQLite:
		if sqlDB, err = infrastorage.OpenSQLite(cfg.SQLitePath); err != nil {
			return nil, err
		}
		in.onClose(func() { sqlDB.Close() })
		in.cartRepo = infrastorage.NewSQLiteCartRepository(sqlDB)
		in.watcher = infrastorage.NewPollingWatcher(in.cartRepo, infrastorage.DefaultPollInterval, logger)
	case config.BackendBadger:
		bdb, err := infrastorage.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		in.onClose(func() { bdb.Close() })
		repo := infrastorage.NewBadgerCartRepository(bdb, logger)
		in.cartRepo, in.watcher = repo, repo
	case config.BackendPostgres:
		gdb, err := infrastorage.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if pg, err := gdb.DB(); err == nil {
			in.onClose(func() { pg.Close() })
		}
		in.cartRepo = infrastorage.NewPostgresCartRepository(gdb)
		in.watcher = infrastorage.NewPollingWatcher(in.cartRepo, infrastorage.DefaultPollInterval, logger)
	case config.BackendFirestore:
		repo := firebaseinfra.NewFirestoreCartRepository(fsClient, logger)
		in.cartRepo, in.watcher = repo, repo
	case config.BackendRTDB:
		repo := firebaseinfra.NewRTDBCartRepository(rtdbClient, "", logger)
		in.cartRepo, in.watcher = repo, repo
	default:
		return nil, fmt.Errorf("unknown cart backend %q", cfg.CartBackend)
	}

	switch cfg.CatalogBackend {
	case config.BackendFirestore:
		in.productRepo = firebaseinfra.NewFirestoreProductRepository(fsClient)
	case config.BackendRTDB:
		in.productRepo = firebaseinfra.NewRTDBProductRepository(rtdbClient, "")
	default:
		in.productRepo = infrastorage.NewMemoryProductRepository()
	}

	if sqlDB != nil {
		in.journal = infrastorage.NewSQLiteScanJournal(sqlDB, cfg.JournalSize)
	} else {
		in.journal = infrastorage.NewMemoryScanJournal(cfg.JournalSize)
	}

	if cfg.RabbitMQURL != "" {
		pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.ChannelPoolSize, logger)
		if err != nil {
			return nil, err
		}
		in.onClose(pool.Close)
		host, _ := os.Hostname()
		in.publisher = rabbitmq.NewPublisher(pool, host, logger)

		// SQL storage o'zi xabar bermaydi: polling o'rniga exchange tinglanadi
		if cfg.CartBackend == config.BackendSQLite || cfg.CartBackend == config.BackendPostgres {
			in.watcher = rabbitmq.NewWatcher(pool, in.cartRepo, rabbitmq.DefaultResyncInterval, logger)
		}
	}

	if cfg.CatalogGCSURI != "" || cfg.FirebaseCredentialsFile != "" {
		client, err := gcs.NewStorageClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			if cfg.CatalogGCSURI != "" {
				return nil, err
			}
			logger.Warn("gcs catalog import disabled", zap.Error(err))
		} else {
			in.onClose(func() { client.Close() })
			in.catalogSource = gcs.NewCatalogSource(client)
		}
	}

	return in, nil
}

// loadBootCatalog CATALOG_FILE yoki CATALOG_GCS_URI dan katalogni yuklash
func loadBootCatalog(ctx context.Context, cfg *config.Config, in *infra, excelParser repository.ExcelParser, logger *zap.Logger) error {
	var (
		products []entity.Product
		source   string
		err      error
	)

	switch {
	case cfg.CatalogGCSURI != "":
		data, name, ferr := in.catalogSource.Fetch(ctx, cfg.CatalogGCSURI)
		if ferr != nil {
			return ferr
		}
		products, err = excelParser.ParseProductsFromBytes(ctx, data, name)
		source = cfg.CatalogGCSURI
	case cfg.CatalogFile != "":
		products, err = excelParser.ParseProducts(ctx, cfg.CatalogFile)
		source = cfg.CatalogFile
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("boot catalog %s: %w", source, err)
	}

	catalog := entity.ProductCatalog{Products: products, Source: source, UpdatedAt: time.Now()}
	if err := in.productRepo.UpdateCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("boot catalog %s: %w", source, err)
	}
	logger.Info("boot catalog loaded", zap.String("source", source), zap.Int("products", len(products)))
	return nil
}

func newBotAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}
	return telegram.NewAPI(cfg.TelegramToken)
}
