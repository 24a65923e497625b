// Package artifact fingerprints generated files and publishes them to object
// storage.
package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// DigestAlgorithm names the hash in reports and object metadata.
const DigestAlgorithm = "blake2b-256"

// Digest returns the hex BLAKE2b-256 of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	defer f.Close()
	return DigestReader(f)
}

// DigestReader hashes r to EOF.
func DigestReader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
