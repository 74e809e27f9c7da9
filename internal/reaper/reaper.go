// Package reaper — фоновая уборка: стирает комнаты и пользователей,
// неактивных дольше порога. Работает по cron-расписаниям независимо
// от трафика запросов.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// RoomSweeper / UserSweeper — условное удаление на стороне стора.
// Предикат по updated_at обязан перечитываться уже под блокировкой
// удаления: комната, получившая сообщение во время свипа, выживает.
type RoomSweeper interface {
	DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type UserSweeper interface {
	DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	RoomCron string        // дефолт: ежедневно в полночь
	UserCron string        // дефолт: первое число месяца
	RoomTTL  time.Duration // дефолт: неделя
	UserTTL  time.Duration // дефолт: месяц
}

type Reaper struct {
	cfg   Config
	rooms RoomSweeper
	users UserSweeper

	now func() time.Time
}

func New(cfg Config, rooms RoomSweeper, users UserSweeper) *Reaper {
	if cfg.RoomCron == "" {
		cfg.RoomCron = "0 0 * * *"
	}
	if cfg.UserCron == "" {
		cfg.UserCron = "0 0 1 * *"
	}
	if cfg.RoomTTL <= 0 {
		cfg.RoomTTL = 7 * 24 * time.Hour
	}
	if cfg.UserTTL <= 0 {
		cfg.UserTTL = 30 * 24 * time.Hour
	}
	return &Reaper{cfg: cfg, rooms: rooms, users: users, now: time.Now}
}

// Start валидирует расписания и запускает оба цикла. Останавливается
// отменой контекста.
func (r *Reaper) Start(ctx context.Context) error {
	for _, expr := range []string{r.cfg.RoomCron, r.cfg.UserCron} {
		if !gronx.IsValid(expr) {
			return fmt.Errorf("invalid reaper cron expression: %s", expr)
		}
	}

	go r.runSchedule(ctx, r.cfg.RoomCron, "rooms", r.SweepRooms)
	go r.runSchedule(ctx, r.cfg.UserCron, "users", r.SweepUsers)

	slog.Info("reaper started",
		"room_cron", r.cfg.RoomCron, "user_cron", r.cfg.UserCron,
		"room_ttl", r.cfg.RoomTTL, "user_ttl", r.cfg.UserTTL)
	return nil
}

// runSchedule спит до следующего тика cron-выражения и запускает свип.
// Ошибка свипа логируется, цикл живёт до следующего тика.
func (r *Reaper) runSchedule(ctx context.Context, expr, name string, sweep func(context.Context) (int64, error)) {
	for {
		next, err := gronx.NextTickAfter(expr, r.now(), false)
		if err != nil {
			slog.Error("reaper next tick failed", "sweep", name, "cron", expr, "err", err)
			next = r.now().Add(time.Minute)
		}

		select {
		case <-ctx.Done():
			slog.Info("reaper stopping", "sweep", name)
			return
		case <-time.After(time.Until(next)):
		}

		if n, err := sweep(ctx); err != nil {
			slog.Error("reaper sweep failed", "sweep", name, "err", err)
		} else if n > 0 {
			slog.Info("reaper sweep done", "sweep", name, "deleted", n)
		}
	}
}

// SweepRooms удаляет комнаты, неактивные строго дольше RoomTTL.
// Комната с updated_at ровно на границе выживает.
func (r *Reaper) SweepRooms(ctx context.Context) (int64, error) {
	return r.rooms.DeleteStaleBefore(ctx, r.now().Add(-r.cfg.RoomTTL))
}

// SweepUsers удаляет пользователей, неактивных строго дольше UserTTL.
// Их прошлые сообщения остаются: имя автора денормализовано.
func (r *Reaper) SweepUsers(ctx context.Context) (int64, error) {
	return r.users.DeleteStaleBefore(ctx, r.now().Add(-r.cfg.UserTTL))
}
