package reaper

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeSweeper хранит «записи» с updated_at и считает строго более старые,
// чем cutoff, как это делает SQL-предикат updated_at < $1.
type fakeSweeper struct {
	mu      sync.Mutex
	stamps  []time.Time
	cutoffs []time.Time
}

func (f *fakeSweeper) DeleteStaleBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cutoffs = append(f.cutoffs, cutoff)
	var kept []time.Time
	var n int64
	for _, ts := range f.stamps {
		if ts.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, ts)
	}
	f.stamps = kept
	return n, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestReaper(cfg Config, rooms, users *fakeSweeper) *Reaper {
	r := New(cfg, rooms, users)
	r.now = fixedNow
	return r
}

func TestSweepRooms_CutoffMath(t *testing.T) {
	rooms := &fakeSweeper{}
	r := newTestReaper(Config{RoomTTL: 7 * 24 * time.Hour}, rooms, &fakeSweeper{})

	if _, err := r.SweepRooms(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	want := fixedNow().Add(-7 * 24 * time.Hour)
	if len(rooms.cutoffs) != 1 || !rooms.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %v, want %v", rooms.cutoffs, want)
	}
}

func TestSweepRooms_BoundaryIsExclusive(t *testing.T) {
	cutoff := fixedNow().Add(-7 * 24 * time.Hour)
	rooms := &fakeSweeper{stamps: []time.Time{
		cutoff,                      // ровно на границе — живёт
		cutoff.Add(-time.Second),    // на секунду старше — удаляется
		cutoff.Add(time.Second),     // моложе — живёт
		cutoff.Add(-48 * time.Hour), // сильно старше — удаляется
	}}
	r := newTestReaper(Config{RoomTTL: 7 * 24 * time.Hour}, rooms, &fakeSweeper{})

	n, err := r.SweepRooms(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}
	if len(rooms.stamps) != 2 {
		t.Fatalf("kept = %d, want 2", len(rooms.stamps))
	}
}

func TestSweepUsers_UsesOwnTTL(t *testing.T) {
	users := &fakeSweeper{}
	r := newTestReaper(Config{UserTTL: 30 * 24 * time.Hour}, &fakeSweeper{}, users)

	if _, err := r.SweepUsers(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	want := fixedNow().Add(-30 * 24 * time.Hour)
	if len(users.cutoffs) != 1 || !users.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %v, want %v", users.cutoffs, want)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{}, &fakeSweeper{}, &fakeSweeper{})

	if r.cfg.RoomCron != "0 0 * * *" {
		t.Fatalf("room cron default = %s", r.cfg.RoomCron)
	}
	if r.cfg.UserCron != "0 0 1 * *" {
		t.Fatalf("user cron default = %s", r.cfg.UserCron)
	}
	if r.cfg.RoomTTL != 7*24*time.Hour || r.cfg.UserTTL != 30*24*time.Hour {
		t.Fatalf("ttl defaults = %v / %v", r.cfg.RoomTTL, r.cfg.UserTTL)
	}
}

func TestStart_RejectsInvalidCron(t *testing.T) {
	r := New(Config{RoomCron: "not a cron"}, &fakeSweeper{}, &fakeSweeper{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err == nil {
		t.Fatal("invalid cron expression must be rejected at start")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	r := New(Config{}, &fakeSweeper{}, &fakeSweeper{})

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	// циклы планировщика висят в select на ctx.Done — отмена их завершает;
	// здесь важно лишь, что Start не блокирует вызывающего
}
