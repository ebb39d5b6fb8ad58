package entity

import "time"

// OutcomeKind natija turi
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeError   OutcomeKind = "error"
)

// Outcome skanerlash natijasi; ko'rsatish qatlamiga uzatiladi
type Outcome struct {
	Kind        OutcomeKind `json:"kind"`
	ErrorKind   ErrorKind   `json:"errorKind,omitempty"`
	Message     string      `json:"message"`
	Barcode     string      `json:"barcode,omitempty"`
	ProductName string      `json:"productName,omitempty"`
	Item        *CartItem   `json:"item,omitempty"`
	Created     bool        `json:"created,omitempty"` // yangi pozitsiya ochildi
	At          time.Time   `json:"at"`
}

// OK natija muvaffaqiyatlimi
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
