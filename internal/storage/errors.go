package storage

import "errors"

var (
	// ErrAdminUserNotFound is returned when an admin user is not found
	ErrAdminUserNotFound = errors.New("admin user not found")

	// ErrModelPriceNotFound is returned when a model price is not found
	ErrModelPriceNotFound = errors.New("model price not found")

	// ErrUserAliasNotFound is returned when a user alias is not found
	ErrUserAliasNotFound = errors.New("user alias not found")
)
