package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/jwt"
)

var tracer = otel.Tracer("auth")

type AuthService struct {
	audiences []string
}

// NewAuthService accepts tokens addressed to any of audiences (the store's contract refs).
func NewAuthService(audiences []string) *AuthService {
	return &AuthService{
		audiences: audiences,
	}
}

type AuthResult struct {
	Address string
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	header, claims, err := jwt.Validate(token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if !slices.Contains(s.audiences, claims.Audience) {
		err := fmt.Errorf("jwt audience mismatch: got %s", claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject != jwt.Subject {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	keyID := header.KeyID
	if keyID == "" {
		keyID = claims.Issuer
	}

	if !carelog.IsAddress(keyID) {
		span.RecordError(fmt.Errorf("invalid issuer"))
		return nil, fmt.Errorf("invalid issuer")
	}

	return &AuthResult{Address: keyID}, nil
}
