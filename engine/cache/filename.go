package cache

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

// Filename implements the cache layout algorithm: the last 30
// characters of the cleaned full path, followed by a fingerprint of the
// full path and the original extension.
func Filename(fullPath string) string {
	ext := filepath.Ext(fullPath)
	cleaned := cleanForFilename(fullPath)
	if len(cleaned) > 30 {
		cleaned = cleaned[len(cleaned)-30:]
	}
	return fmt.Sprintf("%s-%s%s", cleaned, fingerprint(fullPath), ext)
}

func cleanForFilename(s string) string {
	s = strings.ReplaceAll(s, string(filepath.Separator), "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fingerprint is a stable, short digest of the full path. This is the one
// spot in the cache layer with no third-party grounding: no example repo
// does path fingerprinting, so hash/fnv (stdlib) stands in rather than
// pulling in a hashing library for a single non-cryptographic checksum.
func fingerprint(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
