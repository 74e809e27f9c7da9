package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
	Tags string `json:"tags"` // одна строка вида "#go#random"
}

type RoomItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type MessageItem struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	UserName   string    `json:"user_name"`
	Content    string    `json:"content"`
	Attachment *string   `json:"attachment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type RenameUserRequest struct {
	Name string `json:"name"`
}

type UserItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ArchiveRequest struct {
	RoomID string `json:"room_id"`
	Title  string `json:"title"`
}

type ArticleItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type ArticleResponse struct {
	Article  ArticleItem          `json:"article"`
	Messages []ArticleMessageItem `json:"messages"`
}

type ArticleMessageItem struct {
	UserName   string    `json:"user_name"`
	Content    string    `json:"content"`
	Attachment *string   `json:"attachment,omitempty"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
