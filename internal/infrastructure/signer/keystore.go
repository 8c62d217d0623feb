package signer

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/jwt"
)

// Keystore holds the device's single identity key.
type Keystore struct {
	address    string
	privateKey string
}

func NewKeystore(privateKey string) (*Keystore, error) {
	privateKey = strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")
	address, err := carelog.PrivKeyToAddr(privateKey, carelog.AddressPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return &Keystore{
		address:    address,
		privateKey: privateKey,
	}, nil
}

// LoadKeystore reads a hex encoded secp256k1 private key from path.
func LoadKeystore(path string) (*Keystore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keyfile")
	}
	return NewKeystore(string(b))
}

func (k *Keystore) Address() string {
	return k.address
}

// Sign returns the hex encoded recoverable signature of message.
func (k *Keystore) Sign(ctx context.Context, identity string, message []byte) (string, error) {
	if identity != k.address {
		return "", fmt.Errorf("no key for identity %s", identity)
	}
	sig, err := carelog.SignBytes(message, k.privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign")
	}
	return hex.EncodeToString(sig), nil
}

// Token issues a short lived request token for sender towards audience.
func (k *Keystore) Token(ctx context.Context, sender, audience string) (string, error) {
	if sender != k.address {
		return "", fmt.Errorf("no key for sender %s", sender)
	}
	return jwt.Create(jwt.NewClaims(sender, audience, 5*time.Minute), k.privateKey)
}
