package encryption

import (
	"errors"
	"testing"
)

func TestVerifyTaxonomy(t *testing.T) {
	t.Parallel()

	const password = "taxonomy-password"

	sealed, err := Encrypt([]byte("classify my failures"), password)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	truncated := sealed.Blob[:len(sealed.Blob)-3]
	header := sealed.Blob[:2]

	tests := []struct {
		name        string
		blob        []byte
		password    string
		fingerprint string
		checksum    string
		want        error
	}{
		{"valid", sealed.Blob, password, sealed.Fingerprint, sealed.Checksum, nil},
		{"wrong password", sealed.Blob, "another-password", sealed.Fingerprint, sealed.Checksum, ErrAuthenticationMismatch},
		{"fingerprint and checksum wrong", sealed.Blob, password, Fingerprint("x-other-x"), "00", ErrAuthenticationMismatch},
		{"tampered checksum", sealed.Blob, password, sealed.Fingerprint, Checksum([]byte("other"), password), ErrIntegrityMismatch},
		{"truncated body", truncated, password, sealed.Fingerprint, Checksum(truncated, password), ErrLengthMismatch},
		{"truncated header", header, password, sealed.Fingerprint, Checksum(header, password), ErrLengthMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := verify(tc.blob, tc.password, tc.fingerprint, tc.checksum)
			if !errors.Is(err, tc.want) {
				t.Fatalf("verify() err = %v, want %v", err, tc.want)
			}

			// Decrypt collapses every cause into one error.
			if tc.want != nil {
				if _, err := Decrypt(tc.blob, tc.password, tc.fingerprint, tc.checksum); !errors.Is(err, ErrDecryptionFailed) {
					t.Fatalf("Decrypt() err = %v, want %v", err, ErrDecryptionFailed)
				}
			}
		})
	}
}

func TestFoldIsNotInjective(t *testing.T) {
	t.Parallel()

	// Document the collision that limits tamper detection: two lane values that
	// differ only in their lowest bit can fold to the same byte.
	fold := func(v byte) byte { return v + byte(int(logistic(float64(v)/byteScale)*foldScale)) }

	collisions := 0

	for v := range 255 {
		if fold(byte(v)) == fold(byte(v)^1) {
			collisions++
		}
	}

	if collisions == 0 {
		t.Fatal("expected low-bit collisions in the lane fold")
	}
}
