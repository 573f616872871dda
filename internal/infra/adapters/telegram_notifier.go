package adapters

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	bot "github.com/go-telegram/bot"
	models "github.com/go-telegram/bot/models"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// Telegram caps callback data at 64 bytes
const maxCallbackData = 64

// TelegramNotifier posts bot messages to a chat, with suggestions as inline buttons
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
}

// TelegramOptions configures a TelegramNotifier
type TelegramOptions struct {
	Token  string
	ChatID int64
	// ServerURL overrides the Bot API endpoint
	ServerURL string
	Timeout   time.Duration
	Retry     RetryConfig
}

// NewTelegramNotifier builds the client without calling getMe, so startup works offline
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	botOpts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(opts.Timeout, NewRetryableHTTPClient(opts.Timeout, opts.Retry)),
	}
	if opts.ServerURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(opts.ServerURL))
	}

	b, err := bot.New(opts.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: opts.ChatID}, nil
}

// Push sends msg to the configured chat
func (n *TelegramNotifier) Push(ctx context.Context, msg domain.BotMessage) error {
	params := &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   telegramText(msg),
	}
	if kb := suggestionKeyboard(msg.Suggestions); kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := n.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	logger.Debug("Pushed message to telegram", "chat_id", n.chatID, "suggestions", len(msg.Suggestions))
	return nil
}

func telegramText(msg domain.BotMessage) string {
	if len(msg.Suggestions) == 0 {
		return msg.Message
	}
	return msg.Message + "\n\n" + msg.SuggestionTitle
}

// suggestionKeyboard lays suggestions out one per row
func suggestionKeyboard(suggestions []string) *models.InlineKeyboardMarkup {
	if len(suggestions) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []models.InlineKeyboardButton{{Text: s, CallbackData: callbackData(s)}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// callbackData trims s to the Telegram limit without splitting a rune
func callbackData(s string) string {
	if len(s) <= maxCallbackData {
		return s
	}
	cut := maxCallbackData
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
