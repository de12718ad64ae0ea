package domain

import "errors"

var (
	// ErrPlayerNotFound is returned when a player id or name does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResponseNotFound indicates no stored response exists for the key.
	ErrResponseNotFound = errors.New("response not found")
	// ErrInvalidCredentials is returned when a known player presents the wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
