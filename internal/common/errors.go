// Package common defines shared constants and sentinel errors used across
// the entrypack data core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Store lifecycle errors.
	ErrInitialization = errors.New("store initialization failed")

	// Entry pack lifecycle errors.
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEntryPackNotFound = errors.New("entry pack not found")

	// Encrypted artifact access errors.
	ErrPasswordRequired = errors.New("password required")
	ErrDecryption       = errors.New("decryption failed")

	// Backup validation hard failures.
	ErrIntegrity = errors.New("integrity check failed")
)
