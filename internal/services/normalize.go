package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeSentence canonicalizes a submission for cache keying so that
// near-duplicates (case, internal whitespace, trailing punctuation) hit the
// same entry.
func NormalizeSentence(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	s = strings.TrimRight(s, ".!?")
	return strings.TrimSpace(s)
}

func sentenceCacheKey(normalized string, kcID int) string {
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("gh:sapling:%d:%s", kcID, hex.EncodeToString(h[:]))
}
