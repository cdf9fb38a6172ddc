package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"event-registration-platform/internal/models"
)

const checksumSeparator = "###"

// ChecksumService signs gateway requests and verifies gateway callbacks.
// It holds the merchant salt and nothing else.
type ChecksumService struct {
	saltKey   string
	saltIndex string
}

// NewChecksumService creates a checksum service for the given salt
func NewChecksumService(saltKey, saltIndex string) *ChecksumService {
	return &ChecksumService{saltKey: saltKey, saltIndex: saltIndex}
}

// Sign returns hex(sha256(payload + path + salt)) + "###" + saltIndex
func (c *ChecksumService) Sign(payload, path string) string {
	return c.digest(payload, path) + checksumSeparator + c.saltIndex
}

// Verify checks a signature produced by Sign. It never returns anything
// but nil or a ChecksumError.
func (c *ChecksumService) Verify(payload, path, signature string) error {
	if c.saltKey == "" {
		return &models.ChecksumError{Message: "no salt configured"}
	}

	digest, index, found := strings.Cut(strings.TrimSpace(signature), checksumSeparator)
	if !found || digest == "" {
		return &models.ChecksumError{Message: "malformed signature header"}
	}
	if index != c.saltIndex {
		return &models.ChecksumError{Message: "unknown salt index"}
	}

	expected := c.digest(payload, path)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(digest)), []byte(expected)) != 1 {
		return &models.ChecksumError{Message: "signature mismatch"}
	}
	return nil
}

func (c *ChecksumService) digest(payload, path string) string {
	sum := sha256.Sum256([]byte(payload + path + c.saltKey))
	return hex.EncodeToString(sum[:])
}
