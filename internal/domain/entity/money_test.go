package entity

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"12.50", 1250, false},
		{"12,50", 1250, false},
		{"1 250,00", 125000, false},
		{"1,250", 125000, false},
		{"1,250.75", 125075, false},
		{"1.250,00", 125000, false},
		{"1.250.000", 125000000, false},
		{"1,250,000.50", 125000050, false},
		{"3", 300, false},
		{" 0.005 ", 1, false},
		{"92233720368547758.07", 9223372036854775807, false},
		{"", 0, true},
		{"abc", 0, true},
		{"12,5", 0, true},
		{"12,5000", 0, true},
		{"12.50,00", 0, true},
		{"1,25,00", 0, true},
		{"99999999999999999999", 0, true},
		{"92233720368547758.08", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoney(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	if got := Money(2650).String(); got != "26.50" {
		t.Errorf("String = %q, want 26.50", got)
	}
	if got := Money(5).String(); got != "0.05" {
		t.Errorf("String = %q, want 0.05", got)
	}
	if got := Money(550).Mul(3); got != 1650 {
		t.Errorf("Mul = %d, want 1650", got)
	}
	if got := MoneyFromFloat(19.99); got != 1999 {
		t.Errorf("MoneyFromFloat = %d, want 1999", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{Price: 1250})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"price":"12.50"}` {
		t.Errorf("Marshal = %s", data)
	}

	for _, raw := range []string{`"12.50"`, `12.5`} {
		var m Money
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			t.Fatalf("Unmarshal %s: %v", raw, err)
		}
		if m != 1250 {
			t.Errorf("Unmarshal %s = %d, want 1250", raw, m)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`true`), &m); err == nil {
		t.Error("expected error for boolean")
	}
	if err := json.Unmarshal([]byte(`99999999999999999999`), &m); err == nil {
		t.Error("expected error for out of range number")
	}
}
