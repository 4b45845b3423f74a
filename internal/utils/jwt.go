package utils // package utils provides helpers for inspecting bearer tokens

import (
	"crypto/sha256" // SHA‑256 fingerprints for tokens
	"encoding/hex"  // hex encoding of fingerprints
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library used to read (not verify) token claims
)

// TokenExpiry returns the exp claim of a JWT bearer token.  The signature is
// NOT verified: the portal treats the token as opaque and leaves validation
// to the backend's verify-token endpoint.  The expiry is only used to give
// the session cookie a matching lifetime.  ok is false for tokens that are
// not JWTs or carry no exp claim.
func TokenExpiry(raw string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time.UTC(), true
}

// Fingerprint returns a short SHA‑256 based identifier for a token so it can
// appear in rate-limit keys and logs without exposing the credential.
func Fingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
