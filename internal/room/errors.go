// internal/room/errors.go
package room

import "errors"

var (
	// ErrRoomFull is returned by Join when all four seats are taken.
	ErrRoomFull = errors.New("room is full")
	// ErrAlreadyStarted is returned by Join when a round is dealt or in progress.
	ErrAlreadyStarted = errors.New("room already started")
	// ErrNotSeated means the connection holds no seat in the room it addressed.
	ErrNotSeated = errors.New("connection is not seated")
	// ErrAlreadySeated means the connection already holds a seat in some room.
	ErrAlreadySeated = errors.New("connection is already seated")
	// ErrRoomClosed is returned when a session stopped before handling a request.
	ErrRoomClosed = errors.New("room closed")
	// ErrMalformedFrame wraps every inbound decoding failure.
	ErrMalformedFrame = errors.New("malformed frame")
)
