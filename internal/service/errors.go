package service

import "errors"

var (
	// ErrInvalidPassword is returned for passwords shorter than MinPasswordLength.
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
	// ErrEmptyFile is returned when encrypting zero bytes.
	ErrEmptyFile = errors.New("empty file")
	// ErrNotFound is returned for unknown or malformed file IDs.
	ErrNotFound = errors.New("file not found")
	// ErrCorrupted is returned when the stored blob cannot possibly be valid.
	ErrCorrupted = errors.New("encrypted data corrupted")
	// ErrDecryptionFailed covers a wrong password and a modified blob alike.
	ErrDecryptionFailed = errors.New("decryption failed: wrong password or corrupted data")
)
