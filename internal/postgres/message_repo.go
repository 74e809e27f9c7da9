package postgres

import (
	"context"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert пишет сообщение и в той же транзакции освежает комнату и автора.
// Touch комнаты идёт первым: блокировка строки сериализует запись против
// конкурентного стирания комнаты рипером.
func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE rooms SET updated_at=now() WHERE id=$1`, m.RoomID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO messages (room_id, user_id, user_name, content, attachment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, m.RoomID, m.UserID, m.UserName, m.Content, m.Attachment).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET updated_at=now() WHERE id=$1`, m.UserID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// History возвращает историю сообщений комнаты с курсорной пагинацией (created_at,id DESC).
func (r *MessageRepository) History(ctx context.Context, roomID, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := decodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	const baseQuery = `
		SELECT id, room_id, user_id, user_name, content, attachment, created_at
		FROM messages
		WHERE room_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, baseQuery, roomID, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.UserName,
			&m.Content, &m.Attachment, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, next, nil
}
