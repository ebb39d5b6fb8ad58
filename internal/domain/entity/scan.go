package entity

import "time"

// ScanRecord skanerlash jurnali yozuvi
type ScanRecord struct {
	ID        string      `json:"id"`
	Partition string      `json:"partition"`
	Barcode   string      `json:"barcode"`
	Source    string      `json:"source"` // "http", "telegram", ...
	Kind      OutcomeKind `json:"kind"`
	ErrorKind ErrorKind   `json:"errorKind,omitempty"`
	Message   string      `json:"message"`
	ItemKey   string      `json:"itemKey,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
