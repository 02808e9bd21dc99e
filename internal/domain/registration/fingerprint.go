package registration

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short stable digest of a personal value so log lines
// can correlate it without exposing it. Blank input yields "".
func Fingerprint(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(v))
	return hex.EncodeToString(sum[:6])
}
