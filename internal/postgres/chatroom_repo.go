package postgres

import (
	"context"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRoomRepository struct {
	db *pgxpool.Pool
}

func NewChatRoomRepository(db *pgxpool.Pool) *ChatRoomRepository {
	return &ChatRoomRepository{db: db}
}

func (r *ChatRoomRepository) Get(ctx context.Context, id string) (*domain.ChatRoom, error) {
	var cr domain.ChatRoom
	err := r.db.QueryRow(ctx,
		`SELECT id, user1_id, user2_id, created_at, updated_at FROM chat_rooms WHERE id=$1`, id).
		Scan(&cr.ID, &cr.User1ID, &cr.User2ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrChatRoomNotFound
		}
		return nil, err
	}
	return &cr, nil
}

// MatchFree подбирает собеседника: занимает единственный свободный слот
// подходящей комнаты либо создаёт новую и занимает слот 1.
// Пулы «свободен слот 1» и «свободен слот 2» независимы; слот-1-свободные
// всегда в приоритете. FOR UPDATE SKIP LOCKED не даёт двум параллельным
// запросам занять один и тот же слот.
func (r *ChatRoomRepository) MatchFree(ctx context.Context, userID int64) (*domain.ChatRoom, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claim := func(query, update string) (*domain.ChatRoom, error) {
		var id string
		if err := tx.QueryRow(ctx, query).Scan(&id); err != nil {
			if err == pgx.ErrNoRows {
				return nil, nil
			}
			return nil, err
		}
		var cr domain.ChatRoom
		if err := tx.QueryRow(ctx, update, userID, id).
			Scan(&cr.ID, &cr.User1ID, &cr.User2ID, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
		return &cr, nil
	}

	// пул: свободен только слот 1
	cr, err := claim(`
		SELECT id FROM chat_rooms
		WHERE user1_id IS NULL AND user2_id IS NOT NULL
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, `
		UPDATE chat_rooms SET user1_id=$1, updated_at=now() WHERE id=$2
		RETURNING id, user1_id, user2_id, created_at, updated_at
	`)
	if err != nil {
		return nil, err
	}

	// пул: свободен только слот 2
	if cr == nil {
		cr, err = claim(`
			SELECT id FROM chat_rooms
			WHERE user1_id IS NOT NULL AND user2_id IS NULL
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, `
			UPDATE chat_rooms SET user2_id=$1, updated_at=now() WHERE id=$2
			RETURNING id, user1_id, user2_id, created_at, updated_at
		`)
		if err != nil {
			return nil, err
		}
	}

	// свободных нет — новая комната, пользователь в слот 1
	if cr == nil {
		cr = &domain.ChatRoom{}
		if err := tx.QueryRow(ctx, `
			INSERT INTO chat_rooms (user1_id)
			VALUES ($1)
			RETURNING id, user1_id, user2_id, created_at, updated_at
		`, userID).Scan(&cr.ID, &cr.User1ID, &cr.User2ID, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cr, nil
}

// Claim занимает слот конкретной комнаты. Если пользователь уже в комнате —
// no-op (claimed=false). Для полной чужой комнаты возвращает ErrRoomFull:
// наверху это не ошибка, а редирект к списку комнат.
func (r *ChatRoomRepository) Claim(ctx context.Context, roomID string, userID int64) (*domain.ChatRoom, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	cr, err := lockChatRoom(ctx, tx, roomID)
	if err != nil {
		return nil, false, err
	}

	if cr.HasOccupant(userID) {
		return cr, false, tx.Commit(ctx)
	}

	var column string
	switch {
	case cr.User1ID == nil:
		column = "user1_id"
	case cr.User2ID == nil:
		column = "user2_id"
	default:
		return nil, false, domain.ErrRoomFull
	}

	if err := tx.QueryRow(ctx,
		`UPDATE chat_rooms SET `+column+`=$1, updated_at=now() WHERE id=$2
		 RETURNING id, user1_id, user2_id, created_at, updated_at`,
		userID, roomID).
		Scan(&cr.ID, &cr.User1ID, &cr.User2ID, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
		return nil, false, err
	}

	return cr, true, tx.Commit(ctx)
}

// Vacate освобождает слот пользователя (поиск слота — по совпадению id).
// Никакого слота у пользователя нет — no-op (vacated=false). Когда оба слота
// пустеют, комната уничтожается немедленно и в той же транзакции, каскадно
// с чатами; до рипера дело не доходит.
func (r *ChatRoomRepository) Vacate(ctx context.Context, roomID string, userID int64) (vacated, destroyed bool, _ error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, false, err
	}
	defer tx.Rollback(ctx)

	cr, err := lockChatRoom(ctx, tx, roomID)
	if err != nil {
		return false, false, err
	}

	var column string
	switch {
	case cr.User1ID != nil && *cr.User1ID == userID:
		cr.User1ID = nil
		column = "user1_id"
	case cr.User2ID != nil && *cr.User2ID == userID:
		cr.User2ID = nil
		column = "user2_id"
	default:
		return false, false, tx.Commit(ctx)
	}

	if cr.Occupancy() == domain.Empty {
		if _, err := tx.Exec(ctx, `DELETE FROM chats WHERE chat_room_id=$1`, roomID); err != nil {
			return false, false, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chat_rooms WHERE id=$1`, roomID); err != nil {
			return false, false, err
		}
		return true, true, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chat_rooms SET `+column+`=NULL, updated_at=now() WHERE id=$1`, roomID); err != nil {
		return false, false, err
	}
	return true, false, tx.Commit(ctx)
}

// InsertChat пишет сообщение и в той же транзакции освежает комнату
// и автора. Touch комнаты идёт первым: его блокировка строки сериализует
// запись против конкурентного удаления комнаты.
func (r *ChatRoomRepository) InsertChat(ctx context.Context, c *domain.Chat) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE chat_rooms SET updated_at=now() WHERE id=$1`, c.ChatRoomID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrChatRoomNotFound
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO chats (chat_room_id, user_id, user_name, content, attachment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.ChatRoomID, c.UserID, c.UserName, c.Content, c.Attachment).
		Scan(&c.ID, &c.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET updated_at=now() WHERE id=$1`, c.UserID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChatRoomRepository) ListChats(ctx context.Context, roomID string) ([]domain.Chat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, chat_room_id, user_id, user_name, content, attachment, created_at
		FROM chats
		WHERE chat_room_id=$1
		ORDER BY created_at, id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.ChatRoomID, &c.UserID, &c.UserName,
			&c.Content, &c.Attachment, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func lockChatRoom(ctx context.Context, tx pgx.Tx, id string) (*domain.ChatRoom, error) {
	var cr domain.ChatRoom
	err := tx.QueryRow(ctx, `
		SELECT id, user1_id, user2_id, created_at, updated_at
		FROM chat_rooms WHERE id=$1
		FOR UPDATE
	`, id).Scan(&cr.ID, &cr.User1ID, &cr.User2ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrChatRoomNotFound
		}
		return nil, err
	}
	return &cr, nil
}
