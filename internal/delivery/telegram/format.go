package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/usecase"
)

// telegramMessageLimit bitta xabar uchun xavfsiz uzunlik
const telegramMessageLimit = 4000

// formatCart savatni matn ko'rinishida: oxirgi qo'shilgan birinchi
func formatCart(snap entity.CartSnapshot, now time.Time, window time.Duration) string {
	items := usecase.Ordered(snap.State)
	if len(items) == 0 {
		return "🛒 Savat bo'sh."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 Savat (%s)\n\n", snap.Partition))
	for _, item := range items {
		marker := "•"
		if usecase.IsRecentlyAdded(now, item.AddedAt, window) {
			marker = "🆕"
		}
		sb.WriteString(fmt.Sprintf("%s [%s] %s\n    %d × %s = %s\n",
			marker, item.Key, item.Name, item.Quantity, item.UnitPrice, item.LineTotal()))
	}
	sb.WriteString(fmt.Sprintf("\n💰 Jami: %s\n", usecase.Total(snap.State)))
	sb.WriteString(fmt.Sprintf("✅ Checkout (%d items)", usecase.Count(snap.State)))
	return sb.String()
}

// formatTotal qisqa jami
func formatTotal(snap entity.CartSnapshot) string {
	return fmt.Sprintf("💰 Jami: %s\n📦 Pozitsiyalar: %d", usecase.Total(snap.State), usecase.Count(snap.State))
}

// formatOutcome skanerlash natijasi ("toast")
func formatOutcome(outcome entity.Outcome) string {
	if outcome.OK() {
		if outcome.Item != nil {
			return fmt.Sprintf("✅ %s\n%s × %d", outcome.Message, outcome.Item.UnitPrice, outcome.Item.Quantity)
		}
		return "✅ " + outcome.Message
	}

	switch outcome.ErrorKind {
	case entity.KindDuplicateItem:
		msg := "⚠️ " + outcome.Message
		if outcome.Item != nil {
			msg += fmt.Sprintf("\nMiqdorni o'zgartirish: /qty %s <soni>", outcome.Item.Key)
		}
		return msg
	case entity.KindConflict, entity.KindTransport:
		return "⏳ " + outcome.Message
	default:
		return "❌ " + outcome.Message
	}
}

// formatHistory skanerlash jurnali
func formatHistory(records []entity.ScanRecord) string {
	if len(records) == 0 {
		return "📜 Skanerlash tarixi bo'sh."
	}

	var sb strings.Builder
	sb.WriteString("📜 Oxirgi skanerlashlar:\n\n")
	for _, rec := range records {
		icon := "✅"
		if rec.Kind != entity.OutcomeSuccess {
			icon = "❌"
		}
		sb.WriteString(fmt.Sprintf("%s %s %s (%s)", icon, rec.Timestamp.Format("15:04:05"), rec.Barcode, rec.Source))
		if rec.ErrorKind != "" {
			sb.WriteString(" " + string(rec.ErrorKind))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseQtyArgs "/qty <key> <soni>" argumentlari
func parseQtyArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("usage: /qty <key> <quantity>")
	}
	qty, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("quantity must be a number: %q", fields[1])
	}
	return fields[0], qty, nil
}

// splitMessage uzun matnni qatorlar bo'yicha bo'laklash
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if sb.Len() > 0 {
				parts = append(parts, sb.String())
				sb.Reset()
			}
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if sb.Len()+len(line) > limit {
			parts = append(parts, sb.String())
			sb.Reset()
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
