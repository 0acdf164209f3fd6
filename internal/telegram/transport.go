package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Messenger is the outbound side handlers use.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	Typing(ctx context.Context, chatID int64) error
}

// botAPI is the subset of *tgbotapi.BotAPI the transport calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetMe() (tgbotapi.User, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Transport sends messages through the Bot API. It is safe for concurrent
// use.
type Transport struct {
	api botAPI
	log zerolog.Logger
}

// New connects to the Bot API with token and checks it with getMe.
func New(token string, log zerolog.Logger) (*Transport, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newTransport(bot, log), nil
}

func newTransport(api botAPI, log zerolog.Logger) *Transport {
	return &Transport{api: api, log: log.With().Str("component", "telegram").Logger()}
}

// Send posts text to chatID and returns the new message id.
func (t *Transport) Send(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	build := func(plain bool) tgbotapi.Chattable {
		msg := tgbotapi.NewMessage(chatID, text)
		if plain {
			msg.Text = StripMarkdown(text)
		} else {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		if opts != nil {
			msg.DisableWebPagePreview = opts.DisablePreview
			if kb := convertKeyboard(opts.Keyboard); kb != nil {
				msg.ReplyMarkup = *kb
			}
		}
		return msg
	}
	m, err := t.sendWithFallback(build, opts != nil && opts.Plain)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// Edit replaces the text (and keyboard, when given) of an earlier message.
// "message is not modified" is not an error.
func (t *Transport) Edit(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	build := func(plain bool) tgbotapi.Chattable {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if plain {
			edit.Text = StripMarkdown(text)
		} else {
			edit.ParseMode = tgbotapi.ModeMarkdown
		}
		if opts != nil {
			edit.DisableWebPagePreview = opts.DisablePreview
			edit.ReplyMarkup = convertKeyboard(opts.Keyboard)
		}
		return edit
	}
	_, err := t.sendWithFallback(build, opts != nil && opts.Plain)
	if isNotModified(err) {
		return nil
	}
	return err
}

// AnswerCallback acknowledges a button press. text may be empty.
func (t *Transport) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := t.api.Request(cb)
	return err
}

// Typing shows the "typing" indicator in chatID.
func (t *Transport) Typing(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// Identity is the bot's own account.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
}

// GetMe returns the bot's identity; it doubles as a liveness check.
func (t *Transport) GetMe(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	me, err := t.api.GetMe()
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: me.ID, Username: me.UserName, FirstName: me.FirstName}, nil
}

// SetWebhook registers url with Telegram. A non-empty secret is echoed back
// by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (t *Transport) SetWebhook(ctx context.Context, url, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	_, err := t.api.MakeRequest("setWebhook", params)
	return err
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (t *Transport) DeleteWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.api.Request(tgbotapi.DeleteWebhookConfig{})
	return err
}

// Poll long-polls getUpdates and passes each raw update to handle until ctx
// is cancelled. handle must not block for long.
func (t *Transport) Poll(ctx context.Context, timeout int, handle func(tgbotapi.Update)) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeout
	updates := t.api.GetUpdatesChan(cfg)
	t.log.Info().Int("timeout", timeout).Msg("long polling started")
	defer t.log.Info().Msg("long polling stopped")
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			handle(u)
		}
	}
}

// sendWithFallback sends build(plain). A Markdown entity parse error is
// retried once as plain text.
func (t *Transport) sendWithFallback(build func(plain bool) tgbotapi.Chattable, plain bool) (tgbotapi.Message, error) {
	m, err := t.api.Send(build(plain))
	if err == nil || plain || !IsParseError(err) {
		return m, err
	}
	t.log.Debug().Err(err).Msg("markdown rejected, resending as plain text")
	return t.api.Send(build(true))
}

// IsParseError reports whether Telegram rejected the message markup.
func IsParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Message), "can't parse entities")
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// StripMarkdown turns legacy Markdown into plain text: the delimiters *, _
// and ` are dropped and escaped characters (\_, \*, \`, \[) lose their
// backslash, so "ada\_l" reads "ada_l" again.
func StripMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && strings.IndexByte("_*`[", s[i+1]) >= 0:
			i++
			b.WriteByte(s[i])
		case c == '*' || c == '_' || c == '`':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func convertKeyboard(kb *Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			switch {
			case b.URL != "":
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			case FitsCallback(b.Data):
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		if len(buttons) > 0 {
			rows = append(rows, buttons)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
