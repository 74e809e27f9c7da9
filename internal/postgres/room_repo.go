package postgres

import (
	"context"
	"time"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create создаёт комнату вместе с тегами одной транзакцией.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room, tags []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
		INSERT INTO rooms (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, room.Name).Scan(&room.ID, &room.Name, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return err
	}

	for _, tag := range tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_tags (room_id, name) VALUES ($1, $2)`, room.ID, tag); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var rm domain.Room
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM rooms WHERE id=$1`, id).
		Scan(&rm.ID, &rm.Name, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) Tags(ctx context.Context, roomID string) ([]domain.RoomTag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, name FROM room_tags WHERE room_id=$1 ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.RoomTag
	for rows.Next() {
		var t domain.RoomTag
		if err := rows.Scan(&t.ID, &t.RoomID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *RoomRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Room, string, error) {
	cur, err := decodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM rooms
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, "", err
		}
		rooms = append(rooms, rm)
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	return rooms, nextCursor, nil
}

// Touch обновляет отметку активности комнаты.
func (r *RoomRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rooms SET updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// DeleteCascade удаляет комнату вместе с сообщениями и тегами одной транзакцией.
// Каскад явный: сначала дети, потом родитель.
func (r *RoomRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE room_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM room_tags WHERE room_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteStaleBefore удаляет комнаты с updated_at строго старше cutoff,
// каскадно с детьми. SELECT ... FOR UPDATE перечитывает предикат уже после
// захвата блокировки строки: комната, которую тронул параллельный speak,
// из выборки выпадает и не удаляется из-под живого разговора.
func (r *RoomRepository) DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id FROM rooms WHERE updated_at < $1 FOR UPDATE`, cutoff)
	if err != nil {
		return 0, err
	}
	ids, err := collectIDs[string](rows)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE room_id = ANY($1)`, ids); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM room_tags WHERE room_id = ANY($1)`, ids); err != nil {
		return 0, err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}

	return cmd.RowsAffected(), tx.Commit(ctx)
}
