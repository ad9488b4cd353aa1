package users

import "errors"

var (
	ErrNotFound         = errors.New("user not found")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrUsernameReserved = errors.New("username is reserved for its previous owner")
	ErrCooldownActive   = errors.New("username change cooldown active")
	ErrBanned           = errors.New("account is banned")
)
