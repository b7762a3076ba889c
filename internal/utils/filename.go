package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// NewBlobName generates a collision-resistant storage name for an uploaded
// asset: millisecond timestamp, 8 random hex chars, then the sanitized
// original file name.  The original name is kept so operators can tell what
// a blob is when listing the store.
func NewBlobName(original string) (string, error) {
	suffix, err := RandomHex(4)
	if err != nil {
		return "", err
	}
	base := filepath.Base(strings.TrimSpace(original))
	// Strip path separators and spaces that would complicate URLs.
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, base), nil
}
