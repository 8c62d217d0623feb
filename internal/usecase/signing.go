package usecase

import (
	"context"
	"fmt"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
)

// SigningAdapter signs canonical entry payloads when an identity and signer are available.
type SigningAdapter struct {
	signer Signer
}

func NewSigningAdapter(signer Signer) *SigningAdapter {
	return &SigningAdapter{signer: signer}
}

// Sign returns domain.SigningUnavailableError when no signature can be produced.
func (a *SigningAdapter) Sign(ctx context.Context, identity string, canonical []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "Signing.Sign")
	defer span.End()

	if a == nil || a.signer == nil {
		return "", domain.SigningUnavailableError{Reason: "no signer configured"}
	}
	if identity == "" {
		return "", domain.SigningUnavailableError{Reason: "no signing identity"}
	}

	signature, err := a.signer.Sign(ctx, identity, canonical)
	if err != nil {
		span.RecordError(err)
		return "", domain.SigningUnavailableError{Reason: err.Error()}
	}
	if signature == "" {
		return "", domain.SigningUnavailableError{Reason: "signer returned an empty signature"}
	}
	return signature, nil
}

// VerifyEntry checks an entry's signature against its author's address.
func VerifyEntry(e domain.Entry) error {
	if !e.Signed() {
		return fmt.Errorf("entry %s is not signed", e.ID)
	}
	payload, err := e.SignedPayload()
	if err != nil {
		return err
	}
	return carelog.VerifyHexSignature(payload, e.Signature, e.AuthoredBy)
}
