package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/usecase"
)

const (
	maxUploadSize = 5 * 1024 * 1024
	historyLimit  = 15
)

// BotHandler Telegram bot handler
type BotHandler struct {
	bot            *tgbotapi.BotAPI
	api            Sender
	cartUseCase    usecase.CartUseCase
	scanUseCase    usecase.ScanUseCase
	adminUseCase   usecase.AdminUseCase
	productUseCase usecase.ProductUseCase
	recentWindow   time.Duration
	logger         *zap.Logger
	now            func() time.Time
	download       func(fileID string) ([]byte, error)

	// Admin login kutilayotgan userlar
	awaitingPassword map[int64]bool
	mu               sync.RWMutex
}

// NewAPI Telegram Bot API klientini yaratish
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return bot, nil
}

// NewBotHandler yangi bot handler yaratish
func NewBotHandler(
	bot *tgbotapi.BotAPI,
	cartUseCase usecase.CartUseCase,
	scanUseCase usecase.ScanUseCase,
	adminUseCase usecase.AdminUseCase,
	productUseCase usecase.ProductUseCase,
	recentWindow time.Duration,
	logger *zap.Logger,
) *BotHandler {
	h := newBotHandler(bot, cartUseCase, scanUseCase, adminUseCase, productUseCase, recentWindow, logger)
	h.bot = bot
	h.download = h.downloadFile
	return h
}

func newBotHandler(
	api Sender,
	cartUseCase usecase.CartUseCase,
	scanUseCase usecase.ScanUseCase,
	adminUseCase usecase.AdminUseCase,
	productUseCase usecase.ProductUseCase,
	recentWindow time.Duration,
	logger *zap.Logger,
) *BotHandler {
	if recentWindow <= 0 {
		recentWindow = usecase.DefaultRecentWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotHandler{
		api:              api,
		cartUseCase:      cartUseCase,
		scanUseCase:      scanUseCase,
		adminUseCase:     adminUseCase,
		productUseCase:   productUseCase,
		recentWindow:     recentWindow,
		logger:           logger,
		now:              time.Now,
		awaitingPassword: make(map[int64]bool),
	}
}

// Start botni ishga tushirish
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.Info("bot started", zap.String("username", h.bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("bot stopping")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage xabarni qayta ishlash
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	userID := message.From.ID

	// Fayl yuborilgan bo'lsa
	if message.Document != nil {
		h.handleDocumentMessage(ctx, message)
		return
	}

	// Parol kutilayotgan bo'lsa
	if h.isAwaitingPassword(userID) {
		h.handlePasswordInput(ctx, message)
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	// Oddiy matn: skaner yoki qo'lda kiritilgan shtrix-kod
	if text := strings.TrimSpace(message.Text); text != "" {
		outcome := h.scanUseCase.OnDecoded(ctx, "telegram", text)
		h.sendMessage(message.Chat.ID, formatOutcome(outcome))
	}
}

// handleCommand komandalarni qayta ishlash
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		h.sendMessage(message.Chat.ID, welcomeMessage)
	case "help":
		h.sendMessage(message.Chat.ID, helpMessage)
	case "cart":
		h.handleCartCommand(ctx, message)
	case "total":
		h.handleTotalCommand(ctx, message)
	case "qty":
		h.handleQtyCommand(ctx, message)
	case "remove":
		h.handleRemoveCommand(ctx, message)
	case "clear":
		h.handleClearCommand(ctx, message)
	case "history":
		h.handleHistoryCommand(ctx, message)
	case "admin":
		h.handleAdminCommand(ctx, message)
	case "logout":
		h.handleLogoutCommand(ctx, message)
	case "catalog":
		h.handleCatalogCommand(ctx, message)
	case "products":
		h.handleProductsCommand(ctx, message)
	case "import":
		h.handleImportCommand(ctx, message)
	default:
		h.sendMessage(message.Chat.ID, "Noma'lum komanda. /help yordam uchun.")
	}
}

func (h *BotHandler) handleCartCommand(ctx context.Context, message *tgbotapi.Message) {
	snap, err := h.cartUseCase.Snapshot(ctx)
	if err != nil {
		h.sendError(message.Chat.ID, err)
		return
	}
	h.sendMessage(message.Chat.ID, formatCart(*snap, h.now(), h.recentWindow))
}

func (h *BotHandler) handleTotalCommand(ctx context.Context, message *tgbotapi.Message) {
	snap, err := h.cartUseCase.Snapshot(ctx)
	if err != nil {
		h.sendError(message.Chat.ID, err)
		return
	}
	h.sendMessage(message.Chat.ID, formatTotal(*snap))
}

// handleQtyCommand /qty <key> <soni>; 0 pozitsiyani o'chiradi
func (h *BotHandler) handleQtyCommand(ctx context.Context, message *tgbotapi.Message) {
	key, qty, err := parseQtyArgs(message.CommandArguments())
	if err != nil {
		h.sendMessage(message.Chat.ID, "ℹ️ Foydalanish: /qty <key> <soni>")
		return
	}

	item, removed, err := h.cartUseCase.SetQuantity(ctx, key, qty)
	if err != nil {
		h.sendError(message.Chat.ID, err)
		return
	}
	if removed {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("🗑 [%s] savatdan olib tashlandi.", key))
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("✏️ %s: %d ta, %s", item.Name, item.Quantity, item.LineTotal()))
}

func (h *BotHandler) handleRemoveCommand(ctx context.Context, message *tgbotapi.Message) {
	key := strings.TrimSpace(message.CommandArguments())
	if key == "" {
		h.sendMessage(message.Chat.ID, "ℹ️ Foydalanish: /remove <key>")
		return
	}
	if err := h.cartUseCase.RemoveItem(ctx, key); err != nil {
		h.sendError(message.Chat.ID, err)
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("🗑 [%s] savatdan olib tashlandi.", key))
}

// handleClearCommand savatni tozalash (admin)
func (h *BotHandler) handleClearCommand(ctx context.Context, message *tgbotapi.Message) {
	err := h.adminUseCase.ClearCart(ctx, message.From.ID)
	if errors.Is(err, usecase.ErrNotAdmin) {
		h.sendMessage(message.Chat.ID, "❌ Bu komanda faqat adminlar uchun.")
		return
	}
	if err != nil {
		h.sendError(message.Chat.ID, err)
		return
	}
	h.sendMessage(message.Chat.ID, "🧹 Savat tozalandi.")
}

// handleHistoryCommand skanerlash tarixini ko'rsatish
func (h *BotHandler) handleHistoryCommand(ctx context.Context, message *tgbotapi.Message) {
	records, err := h.scanUseCase.History(ctx, historyLimit)
	if err != nil {
		h.logger.Warn("history failed", zap.Error(err))
		h.sendMessage(message.Chat.ID, "Tarixni olishda xatolik.")
		return
	}
	h.sendMessage(message.Chat.ID, formatHistory(records))
}

// handleAdminCommand admin login boshlash
func (h *BotHandler) handleAdminCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	isAdmin, _ := h.adminUseCase.IsAdmin(ctx, userID)
	if isAdmin {
		h.sendMessage(message.Chat.ID, "Siz allaqachon admin sifatida tizimga kirgansiz!")
		return
	}

	h.setAwaitingPassword(userID, true)
	h.sendMessage(message.Chat.ID, "🔐 Admin parolini kiriting:")
}

// handlePasswordInput parol kiritilganini qayta ishlash
func (h *BotHandler) handlePasswordInput(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	h.setAwaitingPassword(userID, false)

	// Xabarni o'chirish (xavfsizlik uchun)
	if h.bot != nil {
		if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
			h.logger.Debug("password message delete failed", zap.Error(err))
		}
	}

	success, err := h.adminUseCase.Login(ctx, userID, message.Text)
	if err != nil {
		h.logger.Error("login failed", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(message.Chat.ID, "❌ Login xatosi yuz berdi.")
		return
	}
	if !success {
		h.sendMessage(message.Chat.ID, "❌ Noto'g'ri parol!")
		return
	}

	h.sendMessage(message.Chat.ID, adminWelcomeMessage)
}

// handleLogoutCommand admin logout
func (h *BotHandler) handleLogoutCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	isAdmin, _ := h.adminUseCase.IsAdmin(ctx, userID)
	if !isAdmin {
		h.sendMessage(message.Chat.ID, "Siz admin emassiz.")
		return
	}

	if err := h.adminUseCase.Logout(ctx, userID); err != nil {
		h.sendMessage(message.Chat.ID, "Logout xatosi.")
		return
	}
	h.sendMessage(message.Chat.ID, "✅ Admin paneldan chiqdingiz.")
}

// handleCatalogCommand katalog haqida ma'lumot
func (h *BotHandler) handleCatalogCommand(ctx context.Context, message *tgbotapi.Message) {
	isAdmin, _ := h.adminUseCase.IsAdmin(ctx, message.From.ID)
	if !isAdmin {
		h.sendMessage(message.Chat.ID, "❌ Bu komanda faqat adminlar uchun.")
		return
	}

	info, err := h.adminUseCase.GetCatalogInfo(ctx)
	if err != nil {
		h.sendMessage(message.Chat.ID, "❌ Katalog topilmadi. Excel fayl yuklang.")
		return
	}
	h.sendMessage(message.Chat.ID, info)
}

// handleProductsCommand mahsulotlar ro'yxati
func (h *BotHandler) handleProductsCommand(ctx context.Context, message *tgbotapi.Message) {
	productsText, err := h.productUseCase.GetProductsAsText(ctx)
	if err != nil {
		h.sendMessage(message.Chat.ID, "❌ Mahsulotlar topilmadi.")
		return
	}
	for _, part := range splitMessage(productsText, telegramMessageLimit) {
		h.sendMessage(message.Chat.ID, part)
	}
}

// handleImportCommand /import gs://bucket/file.xlsx
func (h *BotHandler) handleImportCommand(ctx context.Context, message *tgbotapi.Message) {
	uri := strings.TrimSpace(message.CommandArguments())
	if uri == "" {
		h.sendMessage(message.Chat.ID, "ℹ️ Foydalanish: /import gs://bucket/katalog.xlsx")
		return
	}

	count, err := h.adminUseCase.ImportCatalog(ctx, message.From.ID, uri)
	if errors.Is(err, usecase.ErrNotAdmin) {
		h.sendMessage(message.Chat.ID, "❌ Bu komanda faqat adminlar uchun.")
		return
	}
	if err != nil {
		h.logger.Warn("catalog import failed", zap.String("uri", uri), zap.Error(err))
		h.sendMessage(message.Chat.ID, fmt.Sprintf("❌ Katalogni yuklashda xatolik: %v", err))
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("✅ Katalog yangilandi: %d ta mahsulot (%s)", count, uri))
}

// handleDocumentMessage fayl yuborilganda
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	isAdmin, _ := h.adminUseCase.IsAdmin(ctx, userID)
	if !isAdmin {
		h.sendMessage(message.Chat.ID, "❌ Fayllarni faqat adminlar yuklashi mumkin. /admin komandasi bilan admin bo'ling.")
		return
	}

	doc := message.Document
	if doc.FileSize > maxUploadSize {
		h.sendMessage(message.Chat.ID, "❌ Fayl hajmi 5MB dan oshmasligi kerak!")
		return
	}
	name := strings.ToLower(doc.FileName)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
		h.sendMessage(message.Chat.ID, "❌ Faqat Excel fayllari (.xlsx, .xls) qabul qilinadi!")
		return
	}

	h.sendMessage(message.Chat.ID, "⏳ Fayl yuklanmoqda va qayta ishlanmoqda...")

	fileBytes, err := h.download(doc.FileID)
	if err != nil {
		h.logger.Error("file download failed", zap.String("file", doc.FileName), zap.Error(err))
		h.sendMessage(message.Chat.ID, "❌ Faylni yuklashda xatolik yuz berdi.")
		return
	}

	count, err := h.adminUseCase.UploadCatalog(ctx, userID, fileBytes, doc.FileName)
	if err != nil {
		h.logger.Warn("catalog upload failed", zap.String("file", doc.FileName), zap.Error(err))
		h.sendMessage(message.Chat.ID, fmt.Sprintf("❌ Katalogni yangilashda xatolik: %v", err))
		return
	}

	h.sendMessage(message.Chat.ID, fmt.Sprintf(`✅ Katalog muvaffaqiyatli yangilandi!

📦 Yuklangan mahsulotlar: %d ta
📄 Fayl: %s

Endi shtrix-kodlarni skanerlash mumkin.

/catalog - Katalog haqida ma'lumot
/products - Barcha mahsulotlar`, count, doc.FileName))
}

// downloadFile Telegram dan faylni yuklash
func (h *BotHandler) downloadFile(fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	resp, err := http.Get(file.Link(h.bot.Token))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
}

// isAwaitingPassword parol kutilayotganini tekshirish
func (h *BotHandler) isAwaitingPassword(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.awaitingPassword[userID]
}

// setAwaitingPassword parol kutish rejimini o'rnatish
func (h *BotHandler) setAwaitingPassword(userID int64, awaiting bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if awaiting {
		h.awaitingPassword[userID] = true
	} else {
		delete(h.awaitingPassword, userID)
	}
}

// sendMessage oddiy xabar yuborish
func (h *BotHandler) sendMessage(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendError savat xatoligini foydalanuvchiga tushunarli qilib yuborish
func (h *BotHandler) sendError(chatID int64, err error) {
	var ce *entity.CartError
	if !errors.As(err, &ce) {
		h.logger.Error("cart command failed", zap.Error(err))
		h.sendMessage(chatID, "❌ Xatolik yuz berdi.")
		return
	}

	switch ce.Kind {
	case entity.KindNotFound:
		h.sendMessage(chatID, fmt.Sprintf("❌ [%s] savatda topilmadi.", ce.Key))
	case entity.KindConflict:
		h.sendMessage(chatID, "⏳ Savat band, qaytadan urinib ko'ring.")
	case entity.KindTransport:
		h.sendMessage(chatID, "⏳ Savat ombori vaqtincha ishlamayapti.")
	default:
		h.sendMessage(chatID, "❌ "+ce.Message)
	}
}

// GetBotUsername bot username ni olish
func (h *BotHandler) GetBotUsername() string {
	if h.bot == nil {
		return ""
	}
	return h.bot.Self.UserName
}

const welcomeMessage = `Assalomu alaykum! 👋

Men kassa botiman. Shtrix-kodni yuboring (yoki skaner bilan kiriting), mahsulot umumiy savatga qo'shiladi.

/cart - savatni ko'rish
/help - barcha komandalar`

const helpMessage = `🤖 Bot komandalari:

🛒 Savat:
/cart - Savat tarkibi (oxirgi qo'shilgan birinchi)
/total - Jami summa
/qty <key> <soni> - Miqdorni o'zgartirish (0 - o'chirish)
/remove <key> - Pozitsiyani o'chirish
/history - Oxirgi skanerlashlar
/products - Barcha mahsulotlar

🔐 Admin:
/admin - Admin panelga kirish
/logout - Admin paneldan chiqish
/catalog - Katalog haqida ma'lumot
/clear - Savatni tozalash
/import <gs://...> - Katalogni Cloud Storage dan yuklash

Shtrix-kodni oddiy xabar qilib yuboring, masalan: 4780000000011`

const adminWelcomeMessage = `✅ Admin panelga xush kelibsiz!

🔧 Admin imkoniyatlari:
• Excel fayl yuklash orqali mahsulot katalogini yangilash
• Katalogni Cloud Storage dan import qilish
• Savatni tozalash

📤 Katalog uchun Excel faylni (maksimal 5MB) botga yuboring. Ustunlar:
- Shtrix-kod / Barcode
- Nomi / Name
- Narx / Price
- Soni / Stock (ixtiyoriy)
- Kategoriya / Category (ixtiyoriy)

/catalog - Hozirgi katalog haqida ma'lumot
/clear - Savatni tozalash
/logout - Admin paneldan chiqish`
