package domain

import "time"

type Room struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type RoomTag struct {
	ID     int64  `db:"id"`
	RoomID string `db:"room_id"`
	Name   string `db:"name"`
}
