package carelog

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestSignAndVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	priv := hex.EncodeToString(crypto.FromECDSA(key))

	address, err := PrivKeyToAddr("0x"+priv, AddressPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if !IsAddress(address) {
		t.Fatalf("derived address %s is not a valid address", address)
	}

	msg := []byte(`{"id":"e1","status":"pending_offline"}`)
	sig, err := SignBytes(msg, priv)
	if err != nil {
		t.Fatal(err)
	}

	if err := VerifySignature(msg, sig, address); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifyHexSignature(msg, hex.EncodeToString(sig), address); err != nil {
		t.Fatalf("valid hex signature rejected: %v", err)
	}
	if err := VerifySignature([]byte(`{"id":"e1","status":"synced_online"}`), sig, address); err == nil {
		t.Fatal("signature accepted for a different message")
	}
	if err := VerifyHexSignature(msg, "zz", address); err == nil {
		t.Fatal("malformed signature accepted")
	}
}

func TestDocumentURI(t *testing.T) {
	uri := ComposeDocumentURI("xion1owner", "health_records", "e1")
	if uri != "doc://xion1owner/health_records/e1" {
		t.Fatalf("unexpected uri %s", uri)
	}

	owner, collection, id, err := ParseDocumentURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if owner != "xion1owner" || collection != "health_records" || id != "e1" {
		t.Fatalf("unexpected parts %s %s %s", owner, collection, id)
	}

	if _, _, _, err := ParseDocumentURI("cc://xion1owner/x"); err == nil {
		t.Fatal("foreign scheme accepted")
	}
	if IsAddress("xion1owner") {
		t.Fatal("short string treated as address")
	}
}
