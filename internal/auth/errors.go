package auth

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the email or id.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned by sign-up when the email is taken.
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrInvalidCredential is returned when the password digest does not match.
	ErrInvalidCredential = errors.New("invalid email or password")

	// ErrMissingCredentials is returned when email or password is blank.
	ErrMissingCredentials = errors.New("email and password are required")
)
