package domain

import "time"

// Message — сообщение открытой комнаты. Неизменяемо после создания;
// удаляется только каскадом вместе с комнатой. UserName денормализовано,
// чтобы история переживала удаление пользователя.
type Message struct {
	ID         string    `db:"id"`
	RoomID     string    `db:"room_id"`
	UserID     int64     `db:"user_id"`
	UserName   string    `db:"user_name"`
	Content    string    `db:"content"`
	Attachment *string   `db:"attachment"`
	CreatedAt  time.Time `db:"created_at"`
}

// Chat — сообщение парной комнаты. Та же семантика, другой родитель.
type Chat struct {
	ID         string    `db:"id"`
	ChatRoomID string    `db:"chat_room_id"`
	UserID     int64     `db:"user_id"`
	UserName   string    `db:"user_name"`
	Content    string    `db:"content"`
	Attachment *string   `db:"attachment"`
	CreatedAt  time.Time `db:"created_at"`
}
