// Package id generates identifiers for entities and stored objects.
package id

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CoverPrefix is the storage folder holding curation cover images.
const CoverPrefix = "curation-covers/"

// suffixAlphabet keeps object keys lowercase and free of characters that need escaping.
const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const suffixLength = 10

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "tab-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewUUID returns a random UUID string, the key format used for BaaS rows.
func NewUUID() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// CoverPath builds a fresh object path for a cover image:
// curation-covers/<curationID>-<random>.jpg, or <unix millis> in place of the
// curation ID when the image is uploaded before its curation exists.
func CoverPath(curationID string, now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generate cover suffix: %w", err)
	}
	owner := curationID
	if owner == "" {
		owner = strconv.FormatInt(now.UnixMilli(), 10)
	}
	return CoverPrefix + owner + "-" + suffix + ".jpg", nil
}
