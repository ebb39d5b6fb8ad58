package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitExp narxlar saqlanadigan eng kichik birlik (2 = tiyin/sent)
const MinorUnitExp = 2

// Money summani eng kichik valyuta birligida saqlaydi (masalan 12.50 -> 1250)
type Money int64

// ParseMoney "12.50", "1 250,00", "1.250,00" yoki "1,250.75" kabi qiymatlarni o'qiydi.
// Ikkala ajratgich bo'lsa oxirgisi o'nlik nuqta hisoblanadi. Yolg'iz vergul
// ortidan 2 ta raqam kelsa o'nlik, 3 ta kelsa minglik ajratgich; boshqa holat xato.
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)

	s, err := normalizeSeparators(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	m, err := toMoney(d)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return m, nil
}

// normalizeSeparators satrni decimal.NewFromString tushunadigan ko'rinishga keltiradi
func normalizeSeparators(s string) (string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec, group := ".", ","
		if lastComma > lastDot {
			dec, group = ",", "."
		}
		if strings.Count(s, dec) != 1 {
			return "", fmt.Errorf("repeated decimal separator %q", dec)
		}
		i := strings.Index(s, dec)
		if !grouped(s[:i], group) {
			return "", fmt.Errorf("misplaced group separator %q", group)
		}
		return strings.ReplaceAll(s[:i], group, "") + "." + s[i+1:], nil

	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			if !grouped(s, ",") {
				return "", fmt.Errorf("misplaced group separator %q", ",")
			}
			return strings.ReplaceAll(s, ",", ""), nil
		}
		switch len(s) - lastComma - 1 {
		case MinorUnitExp:
			return s[:lastComma] + "." + s[lastComma+1:], nil
		case 3:
			return s[:lastComma] + s[lastComma+1:], nil
		default:
			return "", fmt.Errorf("ambiguous comma")
		}

	case strings.Count(s, ".") > 1:
		if !grouped(s, ".") {
			return "", fmt.Errorf("misplaced group separator %q", ".")
		}
		return strings.ReplaceAll(s, ".", ""), nil
	}
	return s, nil
}

// grouped butun qism sep bilan 3 xonali guruhlarga to'g'ri bo'linganini tekshiradi
func grouped(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts) == 1 {
		return true
	}
	head := strings.TrimLeft(parts[0], "+-")
	if len(head) == 0 || len(head) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

var (
	maxMoney = decimal.NewFromInt(math.MaxInt64)
	minMoney = decimal.NewFromInt(math.MinInt64)
)

// toMoney decimal qiymatni minor birlikka yaxlitlaydi; int64 chegarasidan
// chiqsa xato qaytaradi
func toMoney(d decimal.Decimal) (Money, error) {
	minor := d.Shift(MinorUnitExp).Round(0)
	if minor.GreaterThan(maxMoney) || minor.LessThan(minMoney) {
		return 0, fmt.Errorf("amount %s out of range", d.String())
	}
	return Money(minor.IntPart()), nil
}

// MoneyFromDecimal decimal qiymatni minor birlikka yaxlitlaydi
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(MinorUnitExp).Round(0).IntPart())
}

// MoneyFromFloat tashqi manbalardan (JSON raqam) kelgan narx uchun
func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// Decimal qiymatni decimal ko'rinishida qaytaradi
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitExp)
}

// Mul miqdorga ko'paytirish
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitExp)
}

// MarshalJSON pulni "26.50" ko'rinishidagi satr sifatida yozadi
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON satr va raqam ko'rinishlarini qabul qiladi
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("invalid money value: %s", string(data))
		}
		parsed, err := toMoney(d)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
