package doclai

import (
	"crypto/md5" // #nosec G501 - content fingerprint, not a security boundary
	"encoding/hex"
)

// HashText computes the MD5 fingerprint of text. The cache file format keys
// entries by this value, so it must stay stable across releases.
func HashText(text string) string {
	sum := md5.Sum([]byte(text)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// CacheKey generates a cache key from a target language and a text hash.
func CacheKey(targetLang, hash string) string {
	return targetLang + ":" + hash
}

// CacheKeyFor is shorthand for CacheKey(targetLang, HashText(text)).
func CacheKeyFor(targetLang, text string) string {
	return CacheKey(targetLang, HashText(text))
}
