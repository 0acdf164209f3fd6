package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

func TestGetBotStatus_DefaultsToOnline(t *testing.T) {
	db := newRepoDB(t)
	rec, err := GetBotStatus(context.Background(), db)
	if err != nil {
		t.Fatalf("GetBotStatus: %v", err)
	}
	if rec.Status != domain.StatusOnline {
		t.Fatalf("expected online, got %q", rec.Status)
	}
}

func TestSetBotStatus_SingleAuthoritativeRow(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := SetBotStatus(ctx, db, domain.StatusOffline, 1); err != nil {
		t.Fatalf("SetBotStatus: %v", err)
	}
	if _, err := SetBotStatus(ctx, db, domain.StatusMaintenance, 2); err != nil {
		t.Fatalf("SetBotStatus: %v", err)
	}
	rec, _ := GetBotStatus(ctx, db)
	if rec.Status != domain.StatusMaintenance || rec.SetBy != 2 {
		t.Fatalf("unexpected status: %+v", rec)
	}

	var wg sync.WaitGroup
	statuses := []domain.BotStatus{domain.StatusOnline, domain.StatusOffline, domain.StatusRestart}
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := SetBotStatus(ctx, db, statuses[i%len(statuses)], int64(i)); err != nil {
				t.Errorf("concurrent SetBotStatus: %v", err)
			}
		}(i)
	}
	wg.Wait()

	var cnt int64
	db.Model(&domain.BotStatusRecord{}).Count(&cnt)
	if cnt != 1 {
		t.Fatalf("expected exactly one status row, got %d", cnt)
	}
}
