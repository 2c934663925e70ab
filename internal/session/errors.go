package session

import "errors"

var (
	ErrInsufficientPrompts = errors.New("not enough distinct prompts for the requested question count")
	ErrInvalidSessionState = errors.New("operation not allowed in current session state")
	ErrSessionComplete     = errors.New("session is complete")
	ErrResultsNotReady     = errors.New("session results are not ready")
	ErrSessionNotFound     = errors.New("session not found")
)
