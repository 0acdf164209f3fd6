package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm/logger"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
)

// newStore opens a migrated SQLite store in a temp dir.
func newStore(t *testing.T) *repo.Store {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	s := repo.NewStore(db, "en")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustUser(t *testing.T, s *repo.Store, id int64, username string) {
	t.Helper()
	if _, err := s.GetOrCreateUser(context.Background(), repo.Profile{TelegramID: id, Username: username, FirstName: "U"}); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
}

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	mu sync.Mutex

	validation  *licenseapi.Validation
	validateErr error

	created   *licenseapi.License
	createErr error
	createApp string
	createReq licenseapi.CreateRequest

	updates   []licenseapi.Patch
	updateIDs []string
	updateErr error

	revoked   []string
	revokeErr error

	licenses []licenseapi.License
	app      *licenseapi.App
	appsErr  error

	analytics *licenseapi.Analytics
	period    string

	calls int
}

func (f *fakeAPI) Validate(ctx context.Context, key string) (*licenseapi.Validation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if f.validation == nil {
		return &licenseapi.Validation{Valid: true, ID: "lic_" + key}, nil
	}
	v := *f.validation
	return &v, nil
}

func (f *fakeAPI) Create(ctx context.Context, appID string, req licenseapi.CreateRequest) (*licenseapi.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.createApp, f.createReq = appID, req
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &licenseapi.License{ID: "lic_new", LicenseKey: "LC-AAAAAA-BBBBBB-CCCCCC"}, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, patch licenseapi.Patch) (*licenseapi.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.updateIDs = append(f.updateIDs, id)
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &licenseapi.License{ID: id}, nil
}

func (f *fakeAPI) Revoke(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.revoked = append(f.revoked, id)
	return f.revokeErr
}

func (f *fakeAPI) ListForApp(ctx context.Context, appID string) ([]licenseapi.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.licenses, nil
}

func (f *fakeAPI) AppByName(ctx context.Context, name string) (*licenseapi.App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.app, f.appsErr
}

func (f *fakeAPI) Analytics(ctx context.Context, id, period string) (*licenseapi.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.period = period
	if f.analytics != nil {
		return f.analytics, nil
	}
	return &licenseapi.Analytics{Period: period}, nil
}

func (f *fakeAPI) Stats(ctx context.Context) (*licenseapi.Stats, error) {
	return &licenseapi.Stats{Total: 3}, nil
}

func (f *fakeAPI) HealthCheck(ctx context.Context) (*licenseapi.Health, error) {
	return &licenseapi.Health{Status: "ok"}, nil
}

type fakeValidationLog struct {
	keys  []string
	valid []bool
	err   error
}

func (f *fakeValidationLog) LogValidation(ctx context.Context, telegramID int64, key string, valid bool) error {
	f.keys = append(f.keys, key)
	f.valid = append(f.valid, valid)
	return f.err
}

var errBoom = errors.New("boom")

func fixedNow() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
