package domain

import "time"

// ChatRoom — анонимная комната на двоих. Слоты nullable: nil == свободен.
type ChatRoom struct {
	ID        string    `db:"id"`
	User1ID   *int64    `db:"user1_id"`
	User2ID   *int64    `db:"user2_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Occupancy — состояние жизненного цикла комнаты по занятым слотам.
type Occupancy int

const (
	Empty Occupancy = iota
	OneOccupied
	Full
)

func (c *ChatRoom) Occupancy() Occupancy {
	switch {
	case c.User1ID != nil && c.User2ID != nil:
		return Full
	case c.User1ID == nil && c.User2ID == nil:
		return Empty
	default:
		return OneOccupied
	}
}

// HasOccupant сообщает, занимает ли пользователь один из слотов.
func (c *ChatRoom) HasOccupant(userID int64) bool {
	if c.User1ID != nil && *c.User1ID == userID {
		return true
	}
	if c.User2ID != nil && *c.User2ID == userID {
		return true
	}
	return false
}
