package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// fingerprintDomain separates log fingerprints from any other sha256 use.
// Version suffix enables future algorithm migration.
const fingerprintDomain = "ttrack/sessionlog/v1"

// Fingerprint returns an opaque hash over the log's raw bytes.
//
// Two loads with an equal fingerprint are guaranteed byte-identical, which
// detects external modification (manual edits in a spreadsheet) without
// re-reading the log semantically. A missing or empty log has a stable
// fingerprint of the empty byte string.
func (s *Store) Fingerprint() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("fingerprint session log: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // domain/data boundary separator
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
