package domain

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrChatRoomNotFound = errors.New("chat room not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrArticleNotFound  = errors.New("article not found")
	ErrRoomFull         = errors.New("chat room is full")
	ErrNotInRoom        = errors.New("user not in the room")
	ErrNameTooLong      = errors.New("display name too long")
	ErrNameRequired     = errors.New("display name required")
	ErrEmptyMessage     = errors.New("empty message")
	ErrMessageTooLong   = errors.New("message too long")
)
