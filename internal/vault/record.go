package vault

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the metadata persisted alongside every blob. Fingerprint and
// Checksum are required to open the blob and are never returned by listings
// served to clients.
type Record struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Fingerprint   string    `json:"fingerprint"`
	Checksum      string    `json:"checksum"`
	OriginalSize  int64     `json:"original_size"`
	EncryptedSize int64     `json:"encrypted_size"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID normalizes id and rejects anything that is not a UUID.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return parsed.String(), nil
}

func metaKey(id string) []byte { return []byte(metaPrefix + id) }
func blobKey(id string) []byte { return []byte(blobPrefix + id) }

const (
	metaPrefix = "meta/"
	blobPrefix = "blob/"
)
