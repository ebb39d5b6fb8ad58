package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
	"github.com/yourusername/scan-pos/internal/usecase"
)

// Sender Telegram API ning xabar yuborish qismi
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DisplayChat kassa ekrani vazifasini bajaruvchi chat: skanerlash natijalari
// shu yerga yuboriladi, savat holati bitta xabarda yangilanib turadi.
type DisplayChat struct {
	api            Sender
	chatID       int64
	recentWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu        sync.Mutex
	messageID int
	lastText  string
}

var _ repository.Notifier = (*DisplayChat)(nil)

// NewDisplayChat chatID 0 bo'lsa hech narsa yuborilmaydi
func NewDisplayChat(api Sender, chatID int64, recentWindow time.Duration, logger *zap.Logger) *DisplayChat {
	if recentWindow <= 0 {
		recentWindow = usecase.DefaultRecentWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisplayChat{api: api, chatID: chatID, recentWindow: recentWindow, logger: logger, now: time.Now}
}

// Notify skanerlash natijasini display chatga yuborish
func (d *DisplayChat) Notify(_ context.Context, outcome entity.Outcome) {
	if d == nil || d.chatID == 0 {
		return
	}
	if _, err := d.api.Send(tgbotapi.NewMessage(d.chatID, formatOutcome(outcome))); err != nil {
		d.logger.Warn("display toast failed", zap.Error(err))
	}
}

// Mirror savatga obuna bo'ladi va ctx tugaguncha savat xabarini yangilaydi
func (d *DisplayChat) Mirror(ctx context.Context, cart usecase.CartUseCase) error {
	if d.chatID == 0 {
		return nil
	}
	unsubscribe, err := cart.Subscribe(ctx, d.render)
	if err != nil {
		return err
	}
	defer unsubscribe()

	<-ctx.Done()
	return nil
}

func (d *DisplayChat) render(snap entity.CartSnapshot) {
	text := formatCart(snap, d.now(), d.recentWindow)

	d.mu.Lock()
	defer d.mu.Unlock()
	if text == d.lastText {
		return
	}

	if d.messageID != 0 {
		edit := tgbotapi.NewEditMessageText(d.chatID, d.messageID, text)
		_, err := d.api.Send(edit)
		if err == nil {
			d.lastText = text
			return
		}
		d.logger.Debug("display edit failed, sending new message", zap.Error(err))
	}

	sent, err := d.api.Send(tgbotapi.NewMessage(d.chatID, text))
	if err != nil {
		d.logger.Warn("display cart update failed", zap.String("version", snap.Version), zap.Error(err))
		return
	}
	d.messageID = sent.MessageID
	d.lastText = text
}
