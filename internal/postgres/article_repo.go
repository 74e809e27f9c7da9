package postgres

import (
	"context"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArticleRepository struct {
	db *pgxpool.Pool
}

func NewArticleRepository(db *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ArchiveRoom снимает копию истории комнаты в статью. Копия, не ссылка:
// авторство, текст и время сохраняются, позиция фиксируется явно,
// дальнейшая судьба комнаты на статью не влияет.
func (r *ArticleRepository) ArchiveRoom(ctx context.Context, roomID, title string) (*domain.Article, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var a domain.Article
	if err := tx.QueryRow(ctx, `
		INSERT INTO articles (title, likes)
		VALUES ($1, 0)
		RETURNING id, title, likes, created_at
	`, title).Scan(&a.ID, &a.Title, &a.Likes, &a.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO article_messages (article_id, user_name, content, attachment, position, created_at)
		SELECT $1, user_name, content, attachment,
		       row_number() OVER (ORDER BY created_at, id),
		       created_at
		FROM messages
		WHERE room_id = $2
	`, a.ID, roomID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepository) Get(ctx context.Context, id string) (*domain.Article, error) {
	var a domain.Article
	err := r.db.QueryRow(ctx,
		`SELECT id, title, likes, created_at FROM articles WHERE id=$1`, id).
		Scan(&a.ID, &a.Title, &a.Likes, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepository) Messages(ctx context.Context, articleID string) ([]domain.ArticleMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, article_id, user_name, content, attachment, position, created_at
		FROM article_messages
		WHERE article_id=$1
		ORDER BY position
	`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArticleMessage
	for rows.Next() {
		var m domain.ArticleMessage
		if err := rows.Scan(&m.ID, &m.ArticleID, &m.UserName, &m.Content,
			&m.Attachment, &m.Position, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Like инкрементирует счётчик атомарно на стороне базы.
func (r *ArticleRepository) Like(ctx context.Context, id string) (int64, error) {
	var likes int64
	err := r.db.QueryRow(ctx,
		`UPDATE articles SET likes = likes + 1 WHERE id=$1 RETURNING likes`, id).Scan(&likes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrArticleNotFound
		}
		return 0, err
	}
	return likes, nil
}
