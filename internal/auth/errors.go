package auth

import "errors"

var (
	ErrUnknownUser  = errors.New("auth: unknown user")
	ErrWrongSecret  = errors.New("auth: wrong secret")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrInvalidToken = errors.New("auth: invalid token")
)
