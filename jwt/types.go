package jwt

import (
	"fmt"
	"strconv"
	"time"
)

type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

type Claims struct {
	Issuer         string `json:"iss,omitempty"` // signer address
	Subject        string `json:"sub,omitempty"`
	Audience       string `json:"aud,omitempty"` // contract the token is meant for
	ExpirationTime string `json:"exp,omitempty"` // unix seconds
	IssuedAt       string `json:"iat,omitempty"`
	JWTID          string `json:"jti,omitempty"`
}

// Expired reports whether exp lies before now. Tokens without exp never expire.
func (c Claims) Expired(now time.Time) (bool, error) {
	if c.ExpirationTime == "" {
		return false, nil
	}
	exp, err := strconv.ParseInt(c.ExpirationTime, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid exp: %w", err)
	}
	return exp < now.Unix(), nil
}
