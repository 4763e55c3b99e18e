package encryption

import "errors"

var (
	// ErrEmptyInput is returned when encrypting zero-length data.
	ErrEmptyInput = errors.New("empty input")
	// ErrInputTooLarge is returned when the plaintext cannot be described by the length prefix.
	ErrInputTooLarge = errors.New("input exceeds 4 GiB")
	// ErrDecryptionFailed is the only error Decrypt reports for a rejected blob.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrAuthenticationMismatch means the password fingerprint did not match.
	ErrAuthenticationMismatch = errors.New("fingerprint mismatch")
	// ErrIntegrityMismatch means the checksum over the blob did not match.
	ErrIntegrityMismatch = errors.New("checksum mismatch")
	// ErrLengthMismatch means the blob is shorter than its length prefix announces.
	ErrLengthMismatch = errors.New("length mismatch")
)
