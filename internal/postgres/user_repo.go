package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateGuest создаёт гостя: имя получает номер после вставки,
// поэтому insert и update идут одной транзакцией.
func (r *UserRepository) CreateGuest(ctx context.Context, namePrefix string) (*domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var u domain.User
	if err := tx.QueryRow(ctx, `
		INSERT INTO users (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, namePrefix).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	u.Name = fmt.Sprintf("%s%d", namePrefix, u.ID)
	if _, err := tx.Exec(ctx, `UPDATE users SET name=$1 WHERE id=$2`, u.Name, u.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Rename(ctx context.Context, id int64, name string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET name=$1, updated_at=now() WHERE id=$2`, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Touch обновляет отметку активности.
func (r *UserRepository) Touch(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET updated_at=now() WHERE id=$1`, id)
	return err
}

// DeleteStaleBefore удаляет пользователей, неактивных строго дольше cutoff.
// Сообщения остаются: авторство денормализовано в user_name.
// FOR UPDATE сериализует удаление с параллельным Touch той же строки.
func (r *UserRepository) DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id FROM users WHERE updated_at < $1 FOR UPDATE`, cutoff)
	if err != nil {
		return 0, err
	}
	ids, err := collectIDs[int64](rows)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, tx.Commit(ctx)
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), tx.Commit(ctx)
}

func collectIDs[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id T
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
