// Package bot is the update ingestion and dispatch core. It turns each
// normalized update into a Request, applies the availability gate, resolves
// the command or callback action in a static table and runs the handler
// behind a single error boundary.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

var licenseKeyText = []*regexp.Regexp{
	regexp.MustCompile(`^LC-[A-Z0-9]{6}-[A-Z0-9]{6}-[A-Z0-9]{6}$`),
	regexp.MustCompile(`^[A-Z0-9]{32}$`),
}

// LooksLikeLicenseKey reports whether a plain message should be validated
// as a license key.
func LooksLikeLicenseKey(text string) bool {
	text = strings.TrimSpace(text)
	for _, re := range licenseKeyText {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDeduper drops updates whose id was already dispatched.
func WithDeduper(d Deduper) Option { return func(x *Dispatcher) { x.dedupe = d } }

// WithThrottle limits non-admin users. A nil throttle allows everything.
func WithThrottle(t *Throttle) Option { return func(x *Dispatcher) { x.throttle = t } }

// WithUsageLogTimeout bounds each background usage-log write.
func WithUsageLogTimeout(d time.Duration) Option { return func(x *Dispatcher) { x.logTimeout = d } }

// Dispatcher routes updates to handlers. Register everything before the
// first Dispatch; the tables are read without locking afterwards.
type Dispatcher struct {
	env        *Env
	commands   map[string]Handler
	callbacks  map[string]Handler
	dedupe     Deduper
	throttle   *Throttle
	logTimeout time.Duration
	log        zerolog.Logger

	mu     sync.Mutex
	closed bool
	bg     sync.WaitGroup
}

// NewDispatcher returns an empty Dispatcher over env.
func NewDispatcher(env *Env, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		env:        env,
		commands:   make(map[string]Handler),
		callbacks:  make(map[string]Handler),
		logTimeout: 5 * time.Second,
		log:        env.Log.With().Str("component", "dispatcher").Logger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Command registers h under name. Registering a name twice panics.
func (d *Dispatcher) Command(name string, h Handler, aliases ...string) {
	for _, n := range append([]string{name}, aliases...) {
		if _, dup := d.commands[n]; dup {
			panic(fmt.Sprintf("bot: command %q registered twice", n))
		}
		d.commands[n] = h
	}
}

// Callback registers h for a callback action.
func (d *Dispatcher) Callback(action string, h Handler) {
	if _, dup := d.callbacks[action]; dup {
		panic(fmt.Sprintf("bot: callback %q registered twice", action))
	}
	d.callbacks[action] = h
}

// Commands lists the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.commands))
	for n := range d.commands {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Env returns the shared handler environment.
func (d *Dispatcher) Env() *Env { return d.env }

// Wait blocks until background usage-log writes finish. It must not race
// with Dispatch; use Close when workers may still be running.
func (d *Dispatcher) Wait() { d.bg.Wait() }

// Close stops starting usage-log writes and waits for the pending ones.
// Dispatch keeps working afterwards but no longer records usage, so Close is
// safe while runner workers are still draining.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.bg.Wait()
}

// Dispatch processes one update to completion. It never panics and never
// returns an error; every failure ends in a log line and, where possible, a
// reply.
func (d *Dispatcher) Dispatch(ctx context.Context, u telegram.Update) {
	ctx, span := otel.Tracer("bot").Start(ctx, "Dispatch", trace.WithAttributes(
		attribute.String("update.kind", u.Kind.String()),
		attribute.Int64("update.id", u.ID),
		attribute.Int64("user.id", u.From.ID),
		attribute.Int64("chat.id", u.ChatID),
	))
	defer span.End()

	log := d.log.With().
		Str("correlation_id", uuid.NewString()).
		Int64("update_id", u.ID).
		Str("kind", u.Kind.String()).
		Int64("user_id", u.From.ID).
		Logger()

	r := newRequest(u, d.env)
	r.Role = d.env.Perms.Role(u.From.ID)
	r.Lang = d.env.Locale.Normalize(u.From.LanguageCode)

	// Telegram stops accepting the answer after a short deadline, so the
	// acknowledgement goes out before anything that can be slow.
	if r.IsCallback() {
		r.Ack(ctx, "")
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Bytes("stack", debug.Stack()).Msg("dispatch panicked")
			span.SetStatus(codes.Error, "panic")
			updatesTotal.WithLabelValues(u.Kind.String(), "panic").Inc()
			_ = r.Reply(ctx, r.T("errors.generic", nil), nil)
		}
	}()

	outcome := d.route(ctx, r, log)
	span.SetAttributes(attribute.String("dispatch.outcome", outcome))
	updatesTotal.WithLabelValues(u.Kind.String(), outcome).Inc()
}

func (d *Dispatcher) route(ctx context.Context, r *Request, log zerolog.Logger) string {
	u := r.Update
	if d.dedupe != nil && u.ID != 0 {
		first, err := d.dedupe.FirstSeen(ctx, u.ID)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("update de-duplication failed, processing anyway")
		case !first:
			log.Debug().Msg("duplicate update dropped")
			return "duplicate"
		}
	}

	if !r.IsAdmin() && !d.throttle.Allow(u.From.ID) {
		if !r.IsCallback() {
			_ = r.Reply(ctx, r.T("errors.rate_limited", nil), nil)
		}
		return "throttled"
	}

	gateName := r.Name
	var hint string
	switch u.Kind {
	case telegram.KindText:
		switch {
		case LooksLikeLicenseKey(u.Text):
			r = r.Redirect("validate", strings.TrimSpace(u.Text))
			gateName = r.Name
		case u.Attachment != "":
			hint = "hint." + u.Attachment
		case strings.TrimSpace(u.Text) != "":
			hint = "hint.text"
		default:
			return "ignored"
		}
	case telegram.KindCallback:
		gateName = ""
	}
	if d.env.Gate.Blocks(gateName) {
		_ = r.Reply(ctx, r.T("status.offline_notice", nil), nil)
		return "offline"
	}

	if err := d.prepare(ctx, r); err != nil {
		d.fail(ctx, r, err, log)
		return "error"
	}
	if !r.IsAdmin() {
		banned, err := d.env.Store.IsBanned(ctx, u.From.ID)
		if err != nil {
			d.fail(ctx, r, err, log)
			return "error"
		}
		if banned {
			_ = r.Reply(ctx, r.T("errors.banned", nil), nil)
			return "banned"
		}
	}
	if hint != "" {
		_ = r.Reply(ctx, r.T(hint, nil), nil)
		return "hint"
	}

	table := d.commands
	if r.IsCallback() {
		table = d.callbacks
	}
	h, ok := table[r.Name]
	if !ok {
		if r.IsCallback() {
			_ = r.Reply(ctx, r.T("errors.unknown_action", nil), nil)
		} else {
			_ = r.Reply(ctx, r.T("errors.command_not_found", locale.Params{"command": r.Name}), nil)
		}
		return "unknown"
	}

	if !r.IsCallback() {
		d.logUsage(r.UserID(), r.Name)
		if err := d.env.Messenger.Typing(ctx, r.ChatID()); err != nil {
			log.Debug().Err(err).Msg("typing indicator failed")
		}
	}
	return d.invoke(ctx, h, r, log)
}

// prepare upserts the caller and resolves the stored language.
func (d *Dispatcher) prepare(ctx context.Context, r *Request) error {
	from := r.Update.From
	u, err := d.env.Store.GetOrCreateUser(ctx, repo.Profile{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		return err
	}
	r.User = u
	r.Lang = d.env.Locale.UserLanguage(ctx, from.ID)
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, r *Request, log zerolog.Logger) string {
	start := time.Now()
	err := d.safeHandle(ctx, h, r)
	handlerDuration.WithLabelValues(r.Update.Kind.String()).Observe(time.Since(start).Seconds())
	if err == nil {
		commandsTotal.WithLabelValues(r.Name, "ok").Inc()
		return "handled"
	}
	commandsTotal.WithLabelValues(r.Name, errorClass(err)).Inc()
	d.fail(ctx, r, err, log)
	return "error"
}

func (d *Dispatcher) safeHandle(ctx context.Context, h Handler, r *Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error().Interface("panic", p).Bytes("stack", debug.Stack()).Str("name", r.Name).Msg("handler panicked")
			err = fmt.Errorf("handler %s panicked: %v", r.Name, p)
		}
	}()
	return h.Handle(ctx, r, d.env)
}

// fail logs err with its taxonomy class and sends the matching reply.
func (d *Dispatcher) fail(ctx context.Context, r *Request, err error, log zerolog.Logger) {
	class := errorClass(err)
	ev := log.Warn()
	if class == "internal" || class == "storage_unavailable" {
		ev = log.Error()
	}
	ev.Err(err).Str("name", r.Name).Str("error_class", class).Msg("request failed")
	trace.SpanFromContext(ctx).RecordError(err)
	_ = r.Reply(ctx, errorMessage(r, err), nil)
}

// logUsage records the command in the background with its own deadline so
// a slow or failing write never delays or aborts the handler.
func (d *Dispatcher) logUsage(userID int64, name string) {
	if d.env.Store == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Debug().Int64("user_id", userID).Str("command", name).Msg("usage log skipped after close")
		return
	}
	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.logTimeout)
		defer cancel()
		if err := d.env.Store.LogCommand(ctx, userID, name); err != nil {
			d.log.Warn().Err(err).Int64("user_id", userID).Str("command", name).Msg("usage log failed")
		}
	}()
}
