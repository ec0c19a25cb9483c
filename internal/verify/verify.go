package verify

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// FileValid reports whether the file at path exists and its SHA-1 digest
// matches expected (hex, case-insensitive). A missing or unreadable file
// reports invalid rather than an error: absence always forces a download.
func FileValid(path, expected string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return false
	}

	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), expected)
}
