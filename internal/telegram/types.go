// Package telegram is the boundary to the Telegram Bot API. It converts raw
// tgbotapi updates into a normalized Update and sends replies through a
// Transport that retries Markdown failures as plain text.
package telegram

// Kind classifies an Update.
type Kind int

const (
	KindText Kind = iota
	KindCommand
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	default:
		return "text"
	}
}

// User is the sender of an update.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// Attachment kinds the bot answers with a hint.
const (
	AttachmentPhoto    = "photo"
	AttachmentDocument = "document"
)

// Update is one inbound event reduced to what the dispatcher needs.
//
// For commands, Command is the token without "/" or "@botname" and Args are
// the whitespace-separated arguments (RawArgs keeps the original spacing).
// For callbacks, MessageID is the message carrying the pressed button.
// Attachment names the media of a text update ("photo" or "document").
type Update struct {
	ID           int64
	Kind         Kind
	ChatID       int64
	MessageID    int
	From         User
	Text         string
	Command      string
	Args         []string
	RawArgs      string
	CallbackID   string
	CallbackData string
	Attachment   string
}

// Button is one inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an inline keyboard, row by row.
type Keyboard struct {
	Rows [][]Button
}

// NewKeyboard builds a keyboard from rows.
func NewKeyboard(rows ...[]Button) *Keyboard { return &Keyboard{Rows: rows} }

// Row groups buttons into one row.
func Row(buttons ...Button) []Button { return buttons }

// DataButton is a callback button.
func DataButton(text, data string) Button { return Button{Text: text, Data: data} }

// URLButton opens a link.
func URLButton(text, url string) Button { return Button{Text: text, URL: url} }

// MaxCallbackData is the Telegram limit on callback data, in bytes.
const MaxCallbackData = 64

// FitsCallback reports whether data can be attached to a button.
func FitsCallback(data string) bool { return data != "" && len(data) <= MaxCallbackData }

// SendOptions tune one outgoing message. The zero value sends Markdown
// without a keyboard.
type SendOptions struct {
	Plain          bool
	Keyboard       *Keyboard
	DisablePreview bool
}

// WithKeyboard is shorthand for Markdown text with kb attached.
func WithKeyboard(kb *Keyboard) *SendOptions { return &SendOptions{Keyboard: kb} }
