package domain

import "time"

// Article — архивный снимок истории комнаты. Копия, не живая ссылка:
// жизненный цикл исходной комнаты на статью не влияет.
type Article struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Likes     int64     `db:"likes"`
	CreatedAt time.Time `db:"created_at"`
}

type ArticleMessage struct {
	ID         string    `db:"id"`
	ArticleID  string    `db:"article_id"`
	UserName   string    `db:"user_name"`
	Content    string    `db:"content"`
	Attachment *string   `db:"attachment"`
	Position   int       `db:"position"`
	CreatedAt  time.Time `db:"created_at"`
}
