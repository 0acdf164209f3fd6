package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type fakeBot struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	sendErrs  []error
	reqErr    error
	me        tgbotapi.User
	meErr     error
	made      []string
	madeParam tgbotapi.Params
	updates   chan tgbotapi.Update
	stopped   bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: f.reqErr == nil}, f.reqErr
}

func (f *fakeBot) GetMe() (tgbotapi.User, error) { return f.me, f.meErr }

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeBot) StopReceivingUpdates() { f.stopped = true }

func (f *fakeBot) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.made = append(f.made, endpoint)
	f.madeParam = params
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestSend_MarkdownWithKeyboard(t *testing.T) {
	bot := &fakeBot{}
	tr := newTransport(bot, zerolog.Nop())
	kb := NewKeyboard(Row(DataButton("Help", "show_help"), DataButton("too long", string(make([]byte, 65)))))

	id, err := tr.Send(context.Background(), 5, "*hi*", WithKeyboard(kb))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != 101 {
		t.Fatalf("message id = %d", id)
	}
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	if msg.ParseMode != tgbotapi.ModeMarkdown || msg.Text != "*hi*" {
		t.Fatalf("unexpected message %+v", msg)
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("oversized callback data must be dropped: %+v", msg.ReplyMarkup)
	}
}

func TestSend_FallsBackToPlainText(t *testing.T) {
	bot := &fakeBot{sendErrs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities: unclosed"}}}
	tr := newTransport(bot, zerolog.Nop())

	if _, err := tr.Send(context.Background(), 5, "*bold_ `x`", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("sent %d messages; want 2", len(bot.sent))
	}
	retry := bot.sent[1].(tgbotapi.MessageConfig)
	if retry.ParseMode != "" || retry.Text != "bold x" {
		t.Fatalf("retry = %+v", retry)
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct{ in, want string }{
		{"*Profile*\nUser: ada\\_lovelace", "Profile\nUser: ada_lovelace"},
		{"\\*starred\\* \\[link] \\`tick\\`", "*starred* [link] `tick`"},
		{"C:\\path\\x", "C:\\path\\x"},
		{"trailing\\", "trailing\\"},
		{"`code` and _em_", "code and em"},
	}
	for _, tt := range tests {
		if got := StripMarkdown(tt.in); got != tt.want {
			t.Errorf("StripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSend_PlainRetryKeepsEscapedText(t *testing.T) {
	bot := &fakeBot{sendErrs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}}}
	tr := newTransport(bot, zerolog.Nop())

	if _, err := tr.Send(context.Background(), 5, "*Name:* John\\_Doe \\*VIP\\*", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if retry := bot.sent[1].(tgbotapi.MessageConfig); retry.Text != "Name: John_Doe *VIP*" {
		t.Fatalf("retry text = %q", retry.Text)
	}
}

func TestSend_OtherErrorsAreNotRetried(t *testing.T) {
	boom := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	bot := &fakeBot{sendErrs: []error{boom}}
	tr := newTransport(bot, zerolog.Nop())
	if _, err := tr.Send(context.Background(), 5, "x", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(bot.sent))
	}
}

func TestEdit_NotModifiedIsIgnored(t *testing.T) {
	bot := &fakeBot{sendErrs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}}}
	tr := newTransport(bot, zerolog.Nop())
	if err := tr.Edit(context.Background(), 5, 9, "same", nil); err != nil {
		t.Fatalf("Edit: %v", err)
	}
}

func TestAnswerCallbackAndTyping(t *testing.T) {
	bot := &fakeBot{}
	tr := newTransport(bot, zerolog.Nop())
	if err := tr.AnswerCallback(context.Background(), "cb1", "", false); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}
	if err := tr.Typing(context.Background(), 5); err != nil {
		t.Fatalf("Typing: %v", err)
	}
	if cb, ok := bot.requests[0].(tgbotapi.CallbackConfig); !ok || cb.CallbackQueryID != "cb1" {
		t.Fatalf("unexpected request %+v", bot.requests[0])
	}
	if _, ok := bot.requests[1].(tgbotapi.ChatActionConfig); !ok {
		t.Fatalf("unexpected request %+v", bot.requests[1])
	}
}

func TestCancelledContextSkipsCall(t *testing.T) {
	bot := &fakeBot{}
	tr := newTransport(bot, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Send(ctx, 5, "x", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(bot.sent) != 0 {
		t.Fatalf("message sent despite cancelled context")
	}
}

func TestSetWebhook_PassesSecret(t *testing.T) {
	bot := &fakeBot{}
	tr := newTransport(bot, zerolog.Nop())
	if err := tr.SetWebhook(context.Background(), "https://bot.example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	if len(bot.made) != 1 || bot.made[0] != "setWebhook" {
		t.Fatalf("made = %v", bot.made)
	}
	if bot.madeParam["secret_token"] != "s3cret" || bot.madeParam["url"] != "https://bot.example.com/webhook" {
		t.Fatalf("params = %v", bot.madeParam)
	}
}

func TestGetMe(t *testing.T) {
	bot := &fakeBot{me: tgbotapi.User{ID: 77, UserName: "lc_bot"}}
	tr := newTransport(bot, zerolog.Nop())
	me, err := tr.GetMe(context.Background())
	if err != nil || me.ID != 77 || me.Username != "lc_bot" {
		t.Fatalf("GetMe = %+v, %v", me, err)
	}
}

func TestPoll_StopsOnCancel(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update, 2)}
	tr := newTransport(bot, zerolog.Nop())
	bot.updates <- tgbotapi.Update{UpdateID: 1}
	bot.updates <- tgbotapi.Update{UpdateID: 2}

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	done := make(chan struct{})
	go func() {
		tr.Poll(ctx, 1, func(u tgbotapi.Update) {
			got = append(got, u.UpdateID)
			if len(got) == 2 {
				cancel()
			}
		})
		close(done)
	}()
	<-done
	if len(got) != 2 || !bot.stopped {
		t.Fatalf("got %v stopped=%v", got, bot.stopped)
	}
}
