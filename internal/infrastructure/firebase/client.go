package firebaseinfra

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config Firebase ulanish sozlamalari
type Config struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string // bo'sh bo'lsa ADC ishlatiladi
}

// App Firebase ilovasi va undan olingan klientlar
type App struct {
	app    *firebase.App
	cfg    Config
	logger *zap.Logger
}

// NewApp Firebase ilovasini ishga tushirish
func NewApp(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	fbCfg := &firebase.Config{ProjectID: cfg.ProjectID, DatabaseURL: cfg.DatabaseURL}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}

	logger.Info("firebase app initialized",
		zap.String("project_id", cfg.ProjectID),
		zap.Bool("database", cfg.DatabaseURL != ""))
	return &App{app: app, cfg: cfg, logger: logger}, nil
}

// Firestore Firestore klienti
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// Database Realtime Database klienti
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("FIREBASE_DATABASE_URL is not set")
	}
	client, err := a.app.DatabaseWithURL(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	return client, nil
}

func isCode(err error, code codes.Code) bool {
	return err != nil && status.Code(err) == code
}
