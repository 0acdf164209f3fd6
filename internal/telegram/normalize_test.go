package telegram

import (
	"reflect"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in, name, args string
		ok             bool
	}{
		{"/start", "start", "", true},
		{"/validate@LicenseBot  KEY-123 ", "validate", "KEY-123", true},
		{"/Help", "Help", "", true},
		{"/ticket \"Bug\" it breaks", "ticket", "\"Bug\" it breaks", true},
		{"/m\nlicenses", "m", "licenses", true},
		{"hello", "", "", false},
		{"/", "", "", false},
		{"/@bot", "", "", false},
	}
	for _, tc := range cases {
		name, args, ok := ParseCommand(tc.in)
		if name != tc.name || args != tc.args || ok != tc.ok {
			t.Fatalf("ParseCommand(%q) = %q, %q, %v; want %q, %q, %v", tc.in, name, args, ok, tc.name, tc.args, tc.ok)
		}
	}
}

func TestNormalize_Command(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 10,
		Message: &tgbotapi.Message{
			MessageID: 3,
			From:      &tgbotapi.User{ID: 42, UserName: "alice", LanguageCode: "de"},
			Chat:      &tgbotapi.Chat{ID: 900},
			Text:      "/analytics@bot KEY-123  7d",
		},
	}
	got, ok := Normalize(u)
	if !ok {
		t.Fatalf("Normalize rejected command")
	}
	if got.Kind != KindCommand || got.Command != "analytics" || got.ChatID != 900 || got.ID != 10 {
		t.Fatalf("unexpected update %+v", got)
	}
	if !reflect.DeepEqual(got.Args, []string{"KEY-123", "7d"}) {
		t.Fatalf("args = %v", got.Args)
	}
	if got.From.Username != "alice" || got.From.LanguageCode != "de" {
		t.Fatalf("sender = %+v", got.From)
	}
}

func TestNormalize_Callback(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 11,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 42},
			Data:    "toggle_setting:analytics:0",
			Message: &tgbotapi.Message{MessageID: 8, Chat: &tgbotapi.Chat{ID: 900}},
		},
	}
	got, ok := Normalize(u)
	if !ok || got.Kind != KindCallback || got.CallbackID != "cb" || got.MessageID != 8 || got.ChatID != 900 {
		t.Fatalf("unexpected update %+v ok=%v", got, ok)
	}
}

func TestNormalize_TextAndIgnored(t *testing.T) {
	got, ok := Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "LC-ABCDEF-123456-XYZXYZ",
	}})
	if !ok || got.Kind != KindText {
		t.Fatalf("plain text = %+v ok=%v", got, ok)
	}
	got, ok = Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Photo: []tgbotapi.PhotoSize{{FileID: "f"}},
	}})
	if !ok || got.Kind != KindText || got.Attachment != AttachmentPhoto || got.Text != "" {
		t.Fatalf("photo = %+v ok=%v", got, ok)
	}
	got, _ = Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Document: &tgbotapi.Document{FileName: "key.txt"},
	}})
	if got.Attachment != AttachmentDocument {
		t.Fatalf("document = %+v", got)
	}
	if _, ok := Normalize(tgbotapi.Update{EditedMessage: &tgbotapi.Message{}}); ok {
		t.Fatalf("edited message should be ignored")
	}
	if _, ok := Normalize(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}); ok {
		t.Fatalf("message without sender should be ignored")
	}
}
