package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrParse        = errors.New("numeric parse failure")
	ErrEmptyBook    = errors.New("book side is empty")
	ErrInvalidOrder = errors.New("invalid order request")
	ErrUnknownVenue = errors.New("unknown venue")
	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrLockHeld     = errors.New("lock already held")
)
