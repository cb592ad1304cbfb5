package models

import "time"

// Credential is a bearer token and the expiry read from its payload, in epoch
// seconds. A zero expiry means the token must not be reused.
type Credential struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Valid reports whether the credential may still be presented at now.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && c.ExpiresAt > now.Unix()
}

// TTL returns the remaining lifetime at now, or zero once expired.
func (c Credential) TTL(now time.Time) time.Duration {
	if !c.Valid(now) {
		return 0
	}
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}
