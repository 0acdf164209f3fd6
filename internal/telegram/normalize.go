package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Normalize converts a raw update. ok is false for update types the bot does
// not handle (edited messages, channel posts, messages without a sender).
func Normalize(u tgbotapi.Update) (Update, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return Update{}, false
		}
		out := Update{
			ID:           int64(u.UpdateID),
			Kind:         KindCallback,
			From:         convertUser(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil {
			out.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				out.ChatID = cq.Message.Chat.ID
			}
		}
		if out.ChatID == 0 {
			out.ChatID = cq.From.ID
		}
		return out, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil {
			return Update{}, false
		}
		out := Update{
			ID:        int64(u.UpdateID),
			Kind:      KindText,
			ChatID:    m.Chat.ID,
			MessageID: m.MessageID,
			From:      convertUser(m.From),
			Text:      m.Text,
		}
		switch {
		case len(m.Photo) > 0:
			out.Attachment = AttachmentPhoto
		case m.Document != nil:
			out.Attachment = AttachmentDocument
		}
		if cmd, raw, ok := ParseCommand(m.Text); ok {
			out.Kind = KindCommand
			out.Command = cmd
			out.RawArgs = raw
			out.Args = strings.Fields(raw)
		}
		return out, true
	}
	return Update{}, false
}

// ParseCommand splits "/name@bot args" into ("name", "args"). The name keeps
// its case.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '/' {
		return "", "", false
	}
	token, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexAny(token, "\n\t"); i >= 0 {
		rest = token[i:] + " " + rest
		token = token[:i]
	}
	token, _, _ = strings.Cut(token, "@")
	if token == "" {
		return "", "", false
	}
	return token, strings.TrimSpace(rest), true
}

func convertUser(u *tgbotapi.User) User {
	return User{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}
