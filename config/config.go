package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cart storage turlari
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendBadger    = "badger"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendRTDB      = "rtdb"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	CartPartition string
	CartBackend   string

	CatalogBackend string
	CatalogFile    string
	CatalogGCSURI  string

	DuplicatePolicy      string
	DecrementStockOnScan bool
	EnforceStock         bool
	MaxAttempts          int
	TransportRetries     int
	RecentWindow         time.Duration

	SQLitePath  string
	BadgerPath  string
	PostgresDSN string

	FirebaseProjectID       string
	FirebaseDatabaseURL     string
	FirebaseCredentialsFile string

	RabbitMQURL      string
	RabbitMQExchange string
	ChannelPoolSize  int

	HTTPPort      string
	TelegramToken string
	AdminPassword string
	DisplayChatID int64
	JournalSize   int
	LogLevel      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CART_PARTITION", "global")
	v.SetDefault("CART_BACKEND", BackendMemory)
	v.SetDefault("CATALOG_BACKEND", BackendMemory)
	v.SetDefault("DUPLICATE_POLICY", "reject")
	v.SetDefault("DECREMENT_STOCK_ON_SCAN", false)
	v.SetDefault("ENFORCE_STOCK", false)
	v.SetDefault("CART_MAX_ATTEMPTS", 8)
	v.SetDefault("CART_TRANSPORT_RETRIES", 3)
	v.SetDefault("RECENT_WINDOW", "5s")
	v.SetDefault("SQLITE_PATH", "data/cart.db")
	v.SetDefault("BADGER_PATH", "data/badger")
	v.SetDefault("RABBITMQ_EXCHANGE", "cart.changes")
	v.SetDefault("CHANNEL_POOL_SIZE", 4)
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DISPLAY_CHAT_ID", 0)
	v.SetDefault("JOURNAL_SIZE", 200)
	v.SetDefault("LOG_LEVEL", "info")

	// Default qiymati bo'sh kalitlar ham AutomaticEnv orqali o'qilishi uchun
	for _, key := range []string{
		"CATALOG_FILE", "CATALOG_GCS_URI", "POSTGRES_DSN",
		"FIREBASE_PROJECT_ID", "FIREBASE_DATABASE_URL", "FIREBASE_CREDENTIALS_FILE",
		"RABBITMQ_URL", "TELEGRAM_BOT_TOKEN", "ADMIN_PASSWORD",
	} {
		v.SetDefault(key, "")
	}
}

// Load konfiguratsiyani yuklash: .env, ixtiyoriy CONFIG_FILE, keyin environment
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("CONFIG_FILE o'qib bo'lmadi: %w", err)
		}
	}

	window, err := time.ParseDuration(v.GetString("RECENT_WINDOW"))
	if err != nil {
		return nil, fmt.Errorf("RECENT_WINDOW noto'g'ri formatda: %v", err)
	}

	config := &Config{
		CartPartition:           strings.TrimSpace(v.GetString("CART_PARTITION")),
		CartBackend:             strings.ToLower(strings.TrimSpace(v.GetString("CART_BACKEND"))),
		CatalogBackend:          strings.ToLower(strings.TrimSpace(v.GetString("CATALOG_BACKEND"))),
		CatalogFile:             v.GetString("CATALOG_FILE"),
		CatalogGCSURI:           v.GetString("CATALOG_GCS_URI"),
		DuplicatePolicy:         strings.ToLower(strings.TrimSpace(v.GetString("DUPLICATE_POLICY"))),
		DecrementStockOnScan:    v.GetBool("DECREMENT_STOCK_ON_SCAN"),
		EnforceStock:            v.GetBool("ENFORCE_STOCK"),
		MaxAttempts:             v.GetInt("CART_MAX_ATTEMPTS"),
		TransportRetries:        v.GetInt("CART_TRANSPORT_RETRIES"),
		RecentWindow:            window,
		SQLitePath:              v.GetString("SQLITE_PATH"),
		BadgerPath:              v.GetString("BADGER_PATH"),
		PostgresDSN:             v.GetString("POSTGRES_DSN"),
		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseDatabaseURL:     v.GetString("FIREBASE_DATABASE_URL"),
		FirebaseCredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		RabbitMQURL:             v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:        v.GetString("RABBITMQ_EXCHANGE"),
		ChannelPoolSize:         v.GetInt("CHANNEL_POOL_SIZE"),
		HTTPPort:                v.GetString("HTTP_PORT"),
		TelegramToken:           v.GetString("TELEGRAM_BOT_TOKEN"),
		AdminPassword:           v.GetString("ADMIN_PASSWORD"),
		DisplayChatID:           v.GetInt64("DISPLAY_CHAT_ID"),
		JournalSize:             v.GetInt("JOURNAL_SIZE"),
		LogLevel:                v.GetString("LOG_LEVEL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate qiymatlarni tekshirish
func (c *Config) Validate() error {
	if c.CartPartition == "" {
		return fmt.Errorf("CART_PARTITION bo'sh")
	}

	switch c.CartBackend {
	case BackendMemory, BackendSQLite, BackendBadger:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("CART_BACKEND=postgres uchun POSTGRES_DSN kerak")
		}
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("CART_BACKEND=firestore uchun FIREBASE_PROJECT_ID kerak")
		}
	case BackendRTDB:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("CART_BACKEND=rtdb uchun FIREBASE_DATABASE_URL kerak")
		}
	default:
		return fmt.Errorf("CART_BACKEND noma'lum: %q", c.CartBackend)
	}

	switch c.CatalogBackend {
	case BackendMemory:
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("CATALOG_BACKEND=firestore uchun FIREBASE_PROJECT_ID kerak")
		}
	case BackendRTDB:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("CATALOG_BACKEND=rtdb uchun FIREBASE_DATABASE_URL kerak")
		}
	default:
		return fmt.Errorf("CATALOG_BACKEND noma'lum: %q", c.CatalogBackend)
	}

	switch c.DuplicatePolicy {
	case "reject", "increment":
	default:
		return fmt.Errorf("DUPLICATE_POLICY noma'lum: %q", c.DuplicatePolicy)
	}

	if c.MaxAttempts <= 0 {
		return fmt.Errorf("CART_MAX_ATTEMPTS musbat bo'lishi kerak")
	}
	if c.TransportRetries < 0 {
		return fmt.Errorf("CART_TRANSPORT_RETRIES manfiy bo'lmasligi kerak")
	}
	if c.ChannelPoolSize <= 0 {
		c.ChannelPoolSize = 1
	}
	if c.JournalSize <= 0 {
		return fmt.Errorf("JOURNAL_SIZE musbat bo'lishi kerak")
	}
	return nil
}

// UsesFirebase Firebase ilovasi kerakmi
func (c *Config) UsesFirebase() bool {
	return c.CartBackend == BackendFirestore || c.CartBackend == BackendRTDB ||
		c.CatalogBackend == BackendFirestore || c.CatalogBackend == BackendRTDB
}
