// Package auth gates the dashboard: the shared admin secret, the stored admin
// password and the signed, expiring sessions issued after login.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Verify reports whether submitted equals the configured secret. Both sides are
// hashed first so the comparison time depends on neither value nor length.
// An empty configured secret never matches.
func Verify(submitted, configured string) bool {
	if configured == "" {
		return false
	}
	a := sha256.Sum256([]byte(submitted))
	b := sha256.Sum256([]byte(configured))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
