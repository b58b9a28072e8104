package user

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("current password is incorrect")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)
