package model

import "errors"

// Store-level errors. The service layer translates these into apierror values.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrStorage           = errors.New("storage failure")
)
