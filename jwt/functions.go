package jwt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/carelog"
)

const (
	Type      = "JWT"
	Algorithm = "CARELOG"
	Subject   = "carelog"
)

var encoding = base64.RawURLEncoding

func encodeSegment(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(b), nil
}

func decodeSegment(segment string, v any) error {
	b, err := encoding.DecodeString(segment)
	if err != nil {
		return fmt.Errorf("malformed segment: %w", err)
	}
	return json.Unmarshal(b, v)
}

// Create signs claims with privatekey. The signature covers "<header>.<claims>".
func Create(claims Claims, privatekey string) (string, error) {
	header, err := encodeSegment(Header{Type: Type, Algorithm: Algorithm})
	if err != nil {
		return "", err
	}
	body, err := encodeSegment(claims)
	if err != nil {
		return "", err
	}

	signingInput := header + "." + body
	signature, err := carelog.SignBytes([]byte(signingInput), privatekey)
	if err != nil {
		return "", err
	}
	return signingInput + "." + encoding.EncodeToString(signature), nil
}

// NewClaims builds request claims for issuer towards audience valid for ttl.
func NewClaims(issuer, audience string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		Issuer:         issuer,
		Subject:        Subject,
		Audience:       audience,
		IssuedAt:       strconv.FormatInt(now.Unix(), 10),
		ExpirationTime: strconv.FormatInt(now.Add(ttl).Unix(), 10),
		JWTID:          uuid.NewString(),
	}
}

// Validate parses token and checks its type, expiry and signature.
func Validate(token string) (*Header, *Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, nil, fmt.Errorf("invalid jwt format")
	}

	var header Header
	if err := decodeSegment(segments[0], &header); err != nil {
		return nil, nil, err
	}
	if header.Type != Type || header.Algorithm != Algorithm {
		return nil, nil, fmt.Errorf("unsupported jwt type %s/%s", header.Type, header.Algorithm)
	}

	var claims Claims
	if err := decodeSegment(segments[1], &claims); err != nil {
		return nil, nil, err
	}
	expired, err := claims.Expired(time.Now())
	if err != nil {
		return nil, nil, err
	}
	if expired {
		return nil, nil, fmt.Errorf("jwt is already expired")
	}

	signature, err := encoding.DecodeString(segments[2])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed signature: %w", err)
	}
	signer := header.KeyID
	if signer == "" {
		signer = claims.Issuer
	}
	if err := carelog.VerifySignature([]byte(segments[0]+"."+segments[1]), signature, signer); err != nil {
		return nil, nil, err
	}

	return &header, &claims, nil
}
