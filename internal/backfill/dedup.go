package backfill

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Fingerprint hashes a transcript with whitespace runs collapsed, so copies
// that differ only in line endings or indentation match.
func Fingerprint(transcript string) string {
	fields := strings.FieldsFunc(transcript, unicode.IsSpace)
	sum := sha256.Sum256([]byte(strings.Join(fields, " ")))
	return hex.EncodeToString(sum[:])
}

// seenSet tracks fingerprints already analyzed, in earlier runs or earlier in
// this one.
type seenSet map[string]bool

func newSeenSet(prior []string) seenSet {
	s := make(seenSet, len(prior))
	for _, fp := range prior {
		s[fp] = true
	}
	return s
}

// claim reports whether fp is new and records it.
func (s seenSet) claim(fp string) bool {
	if s[fp] {
		return false
	}
	s[fp] = true
	return true
}

// release forgets fp so a later copy of a failed transcript is analyzed.
func (s seenSet) release(fp string) {
	delete(s, fp)
}
