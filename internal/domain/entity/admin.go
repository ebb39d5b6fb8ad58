package entity

import "time"

// AdminSession admin sessiya
type AdminSession struct {
	UserID       int64
	IsAdmin      bool
	LoginTime    time.Time
	LastActivity time.Time
}

// AdminAction admin harakatlari
type AdminAction struct {
	ID        string
	UserID    int64
	Action    string // "login", "upload_catalog", "import_catalog", "clear_cart"
	Details   string
	Partition string
	Timestamp time.Time
}
