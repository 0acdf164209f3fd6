package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/sysutil"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

// Env carries the collaborators every handler may use. It is built once at
// start and shared by all updates.
type Env struct {
	Messenger telegram.Messenger
	Licenses  *services.LicenseService
	Tickets   *services.TicketService
	Settings  *services.SettingsService
	Users     *services.UserService
	Status    *services.StatusService
	Store     *repo.Store
	Locale    *locale.Translator
	Perms     *permissions.Resolver
	Gate      *StatusGate
	Host      *sysutil.HostCollector

	Mode      string
	Version   string
	StartedAt time.Time
	Log       zerolog.Logger
}

// Handler runs one command or callback action.
type Handler interface {
	Handle(ctx context.Context, r *Request, env *Env) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r *Request, env *Env) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, r *Request, env *Env) error { return f(ctx, r, env) }

// Request is the shared representation of a command and a callback action.
// Handlers read their arguments from Args regardless of where they came from.
type Request struct {
	Update telegram.Update
	// Name is the command name or the callback action.
	Name string
	Args []string
	// RawArgs keeps the original spacing and quotes of command arguments.
	RawArgs string
	Role    permissions.Role
	User    *domain.User
	Lang    string

	env     *Env
	ackOnce *sync.Once
}

// IsCallback reports whether the request came from a button.
func (r *Request) IsCallback() bool { return r.Update.Kind == telegram.KindCallback }

// IsAdmin reports whether the caller is admin or owner.
func (r *Request) IsAdmin() bool { return r.Role.Satisfies(permissions.RoleAdmin) }

// UserID is the caller's Telegram id.
func (r *Request) UserID() int64 { return r.Update.From.ID }

// ChatID is the chat the reply goes to.
func (r *Request) ChatID() int64 { return r.Update.ChatID }

// Arg returns Args[i] or "".
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// Rest joins the arguments from i on.
func (r *Request) Rest(i int) string {
	if i >= len(r.Args) {
		return ""
	}
	return strings.Join(r.Args[i:], " ")
}

// T renders key in the caller's language.
func (r *Request) T(key string, params locale.Params) string {
	if r.env == nil || r.env.Locale == nil {
		return key
	}
	return r.env.Locale.T(key, r.Lang, params)
}

// Reply sends a new message to the caller's chat. Transport failures are
// logged and returned; callers usually ignore them.
func (r *Request) Reply(ctx context.Context, text string, opts *telegram.SendOptions) error {
	if r.env == nil || r.env.Messenger == nil {
		return nil
	}
	_, err := r.env.Messenger.Send(ctx, r.ChatID(), text, opts)
	if err != nil {
		r.env.Log.Warn().Err(err).Int64("chat_id", r.ChatID()).Str("name", r.Name).Msg("send failed")
	}
	return err
}

// Respond edits the message holding the pressed button for callbacks and
// sends a new message otherwise. A failed edit falls back to a new message.
func (r *Request) Respond(ctx context.Context, text string, opts *telegram.SendOptions) error {
	if r.env == nil || r.env.Messenger == nil {
		return nil
	}
	if r.IsCallback() && r.Update.MessageID != 0 {
		err := r.env.Messenger.Edit(ctx, r.ChatID(), r.Update.MessageID, text, opts)
		if err == nil {
			return nil
		}
		r.env.Log.Debug().Err(err).Str("name", r.Name).Msg("edit failed, sending new message")
	}
	return r.Reply(ctx, text, opts)
}

// Ack answers the callback query at most once. Later calls, and calls for
// commands, do nothing.
func (r *Request) Ack(ctx context.Context, text string) {
	if !r.IsCallback() || r.ackOnce == nil || r.env == nil || r.env.Messenger == nil {
		return
	}
	r.ackOnce.Do(func() {
		start := time.Now()
		if err := r.env.Messenger.AnswerCallback(ctx, r.Update.CallbackID, text, false); err != nil {
			r.env.Log.Warn().Err(err).Str("callback_id", r.Update.CallbackID).Msg("answer callback failed")
		}
		callbackAckSeconds.Observe(time.Since(start).Seconds())
	})
}

// newRequest builds the request of u bound to env.
func newRequest(u telegram.Update, env *Env) *Request {
	r := &Request{Update: u, env: env, ackOnce: &sync.Once{}}
	switch u.Kind {
	case telegram.KindCommand:
		r.Name, r.Args, r.RawArgs = u.Command, u.Args, u.RawArgs
	case telegram.KindCallback:
		r.Name, r.Args = ParseCallback(u.CallbackData)
		r.RawArgs = strings.Join(r.Args, " ")
	}
	return r
}

// Redirect returns a copy of r that runs as name with args. The copy shares
// the acknowledgement state of r.
func (r *Request) Redirect(name string, args ...string) *Request {
	c := *r
	c.Name = name
	c.Args = args
	c.RawArgs = strings.Join(args, " ")
	return &c
}
