package bot

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

const (
	ownerID = int64(1)
	adminID = int64(2)
	userID  = int64(100)
)

type sent struct {
	kind   string // send, edit, ack, typing
	chatID int64
	text   string
	opts   *telegram.SendOptions
}

// fakeMessenger records every outbound call in order.
type fakeMessenger struct {
	mu      sync.Mutex
	events  []sent
	editErr error
}

func (m *fakeMessenger) add(e sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (int, error) {
	m.add(sent{kind: "send", chatID: chatID, text: text, opts: opts})
	return 1, nil
}

func (m *fakeMessenger) Edit(ctx context.Context, chatID int64, msgID int, text string, opts *telegram.SendOptions) error {
	if m.editErr != nil {
		return m.editErr
	}
	m.add(sent{kind: "edit", chatID: chatID, text: text, opts: opts})
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, id, text string, alert bool) error {
	m.add(sent{kind: "ack", text: id})
	return nil
}

func (m *fakeMessenger) Typing(ctx context.Context, chatID int64) error {
	m.add(sent{kind: "typing", chatID: chatID})
	return nil
}

func (m *fakeMessenger) all() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sent(nil), m.events...)
}

// of returns the events of one kind.
func (m *fakeMessenger) of(kind string) []sent {
	var out []sent
	for _, e := range m.all() {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// replies returns the text of every send and edit.
func (m *fakeMessenger) replies() []string {
	var out []string
	for _, e := range m.all() {
		if e.kind == "send" || e.kind == "edit" {
			out = append(out, e.text)
		}
	}
	return out
}

// countingAPI is a license API that only counts calls.
type countingAPI struct {
	mu    sync.Mutex
	calls int
}

func (a *countingAPI) hit() {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
}

func (a *countingAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *countingAPI) Validate(ctx context.Context, key string) (*licenseapi.Validation, error) {
	a.hit()
	return &licenseapi.Validation{Valid: true, ID: "lic_1"}, nil
}

func (a *countingAPI) Create(ctx context.Context, appID string, req licenseapi.CreateRequest) (*licenseapi.License, error) {
	a.hit()
	return &licenseapi.License{ID: "lic_1"}, nil
}

func (a *countingAPI) Update(ctx context.Context, id string, p licenseapi.Patch) (*licenseapi.License, error) {
	a.hit()
	return &licenseapi.License{ID: id}, nil
}

func (a *countingAPI) Revoke(ctx context.Context, id string) error { a.hit(); return nil }

func (a *countingAPI) ListForApp(ctx context.Context, appID string) ([]licenseapi.License, error) {
	a.hit()
	return nil, nil
}

func (a *countingAPI) AppByName(ctx context.Context, name string) (*licenseapi.App, error) {
	a.hit()
	return nil, nil
}

func (a *countingAPI) Analytics(ctx context.Context, id, period string) (*licenseapi.Analytics, error) {
	a.hit()
	return &licenseapi.Analytics{}, nil
}

func (a *countingAPI) Stats(ctx context.Context) (*licenseapi.Stats, error) {
	a.hit()
	return &licenseapi.Stats{}, nil
}

func (a *countingAPI) HealthCheck(ctx context.Context) (*licenseapi.Health, error) {
	a.hit()
	return &licenseapi.Health{Status: "ok"}, nil
}

type harness struct {
	env   *Env
	msgr  *fakeMessenger
	api   *countingAPI
	store *repo.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	store := repo.NewStore(db, "en")
	t.Cleanup(func() { _ = store.Close() })

	tr, err := locale.New("en", store, zerolog.Nop())
	if err != nil {
		t.Fatalf("locale.New: %v", err)
	}
	perms := permissions.NewResolver(ownerID, []int64{adminID})
	gate := NewStatusGate(domain.StatusOnline)
	api := &countingAPI{}
	msgr := &fakeMessenger{}

	env := &Env{
		Messenger: msgr,
		Licenses:  services.NewLicenseService(api, store, "App", zerolog.Nop()),
		Tickets:   services.NewTicketService(store),
		Settings:  services.NewSettingsService(store, tr),
		Users:     services.NewUserService(store, perms),
		Status:    services.NewStatusService(store, gate),
		Store:     store,
		Locale:    tr,
		Perms:     perms,
		Gate:      gate,
		Mode:      "poll",
		Version:   "test",
		StartedAt: time.Now(),
		Log:       zerolog.Nop(),
	}
	return &harness{env: env, msgr: msgr, api: api, store: store}
}

func (h *harness) t(key string, params locale.Params) string {
	return h.env.Locale.T(key, "en", params)
}

func command(from int64, name string, args ...string) telegram.Update {
	return telegram.Update{
		ID:      nextUpdateID.Add(1),
		Kind:    telegram.KindCommand,
		ChatID:  from,
		From:    telegram.User{ID: from, Username: "u", FirstName: "U"},
		Text:    "/" + name,
		Command: name,
		Args:    args,
	}
}

func callback(from int64, data string) telegram.Update {
	return telegram.Update{
		ID:           nextUpdateID.Add(1),
		Kind:         telegram.KindCallback,
		ChatID:       from,
		MessageID:    10,
		From:         telegram.User{ID: from, Username: "u", FirstName: "U"},
		CallbackID:   "cb-1",
		CallbackData: data,
	}
}

// recorder is a handler that remembers the requests it saw.
type recorder struct {
	mu   sync.Mutex
	reqs []*Request
	err  error
}

func (h *recorder) Handle(ctx context.Context, r *Request, env *Env) error {
	h.mu.Lock()
	h.reqs = append(h.reqs, r)
	h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	return r.Reply(ctx, "handled "+r.Name, nil)
}

func (h *recorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reqs)
}

var (
	errBoom      = errors.New("boom")
	nextUpdateID atomic.Int64
)
