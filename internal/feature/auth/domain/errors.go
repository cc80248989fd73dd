// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

var (
	// ErrInvalidCredentials indicates that the admin password did not match.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrLoginDisabled indicates that no admin password hash is configured.
	ErrLoginDisabled = errors.New("admin login is not configured")
)
