package errors

import "fmt"

var (
	ErrInvalidName     = fmt.Errorf("room name is reserved or invalid")
	ErrDuplicateRoom   = fmt.Errorf("room already exists")
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrProtectedRoom   = fmt.Errorf("room is protected and cannot be deleted")
	ErrNotOwner        = fmt.Errorf("requester is not the room owner")
	ErrMuted           = fmt.Errorf("connection is muted")
	ErrPersistence     = fmt.Errorf("message store failure")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrTargetOffline   = fmt.Errorf("target connection is offline")

	ErrInvalidCommand = fmt.Errorf("malformed command payload")
	ErrUnknownEvent   = fmt.Errorf("unknown event name")
	ErrEmptyWords     = fmt.Errorf("no words have been found")
	ErrWorkerPanic    = fmt.Errorf("worker panic")
)
