package service

import (
	"context"
	"fmt"
	"sync"

	"breakout_bot/internal/book"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender — то, что нам нужно от BotAPI; в тестах подменяется.
type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram — операторский канал: сервисные сообщения о сделках и пара команд
// управления. Без токена или chat_id всё уходит только в лог.
type Telegram struct {
	bot    *tgbot.BotAPI
	send   sender
	chatID int64
	book   *book.Book
	log    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewTelegram(token string, chatID int64, b *book.Book, log *zap.Logger) (*Telegram, error) {
	t := &Telegram{chatID: chatID, book: b, log: log}
	if token == "" || chatID == 0 {
		return t, nil
	}
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	t.bot = bot
	t.send = bot
	return t, nil
}

// SendService пишет в лог и, если бот настроен, в чат оператора.
func (t *Telegram) SendService(_ context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.log.Info("[NOTIFY] " + msg)
	if t.send == nil || t.chatID == 0 {
		return
	}
	if _, err := t.send.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("[NOTIFY] telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) reply(chatID int64, text string) {
	if t.send == nil {
		return
	}
	msg := tgbot.NewMessage(chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	if _, err := t.send.Send(msg); err != nil {
		t.log.Warn("[TG] reply failed", zap.Error(err))
	}
}

// Start: long-polling команд из чата оператора.
func (t *Telegram) Start(ctx context.Context) {
	if t.bot == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(upd)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Telegram) handleUpdate(upd tgbot.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	// чужие чаты игнорируем
	if msg.Chat.ID != t.chatID {
		return
	}
	t.reply(msg.Chat.ID, t.handleCommand(msg.Command(), msg.CommandArguments()))
}
