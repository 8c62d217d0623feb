package carelog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

const AddressPrefix = "xion"

func GetHash(bytes []byte) []byte {
	return crypto.Keccak256(bytes)
}

// PubkeyBytesToAddr derives the bech32 account address of a compressed secp256k1 key.
func PubkeyBytesToAddr(pubkeyBytes []byte, hrp string) (string, error) {
	sha := sha256.Sum256(pubkeyBytes)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return bech32.ConvertAndEncode(hrp, hasher.Sum(nil))
}

func PrivKeyToAddr(privKey string, hrp string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKey, "0x"))
	if err != nil {
		return "", err
	}
	return PubkeyBytesToAddr(crypto.CompressPubkey(&key.PublicKey), hrp)
}

// SignBytes returns a 65 byte recoverable signature over the keccak hash of bytes.
func SignBytes(bytes []byte, privKey string) ([]byte, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKey, "0x"))
	if err != nil {
		return nil, err
	}
	return crypto.Sign(GetHash(bytes), key)
}

// VerifySignature checks that signature over message was produced by the key behind address.
func VerifySignature(message []byte, signature []byte, address string) error {
	hrp, _, err := bech32.DecodeAndConvert(address)
	if err != nil {
		return fmt.Errorf("invalid address: %v", err)
	}

	pub, err := crypto.SigToPub(GetHash(message), signature)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %v", err)
	}

	recovered, err := PubkeyBytesToAddr(crypto.CompressPubkey(pub), hrp)
	if err != nil {
		return err
	}

	if recovered != address {
		return fmt.Errorf("signature does not match address: expected %s, got %s", address, recovered)
	}

	return nil
}

func VerifyHexSignature(message []byte, signature string, address string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %v", err)
	}
	return VerifySignature(message, sig, address)
}
