package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/client"
	"github.com/totegamma/carelog/internal/domain"
)

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context, sender, audience string) (string, error) {
	return sender + "@" + audience, nil
}

func TestDocustoreGatewayMapsConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xion1a@contract-main", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(carelog.ErrorResponse{Error: "document already exists"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gw := NewDocustoreGateway(client.New(srv.URL), staticTokens{})
	_, err := gw.Execute(context.Background(), "xion1a", "contract-main", carelog.ExecuteMessage{
		Set: &carelog.SetDocument{Owner: "xion1a", Collection: "patient_linkage", DocumentID: "xion1a", Data: "{}"},
	}, carelog.FeeAuto, nil)

	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestDocustoreGatewayWithoutKey(t *testing.T) {
	gw := NewDocustoreGateway(client.New("http://127.0.0.1:1"), nil)
	_, err := gw.Execute(context.Background(), "xion1a", "contract-main", carelog.ExecuteMessage{}, carelog.FeeAuto, nil)
	var su domain.SigningUnavailableError
	assert.ErrorAs(t, err, &su)
}

func TestHealthProbe(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	assert.True(t, NewHealthProbe(client.New(up.URL)).Reachable(context.Background()))
	assert.False(t, NewHealthProbe(client.New(down.URL)).Reachable(context.Background()))
}

func TestFileProofSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o600))
	}
	write("prov-doctor", `{"proofs":[{"claimData":{"provider":"prov-doctor","owner":"xion1a","epoch":1},"signatures":["0xaa"]}]}`)
	write("prov-nurse", `{"error":"Cancelled"}`)
	write("prov-other", `{"proofs":[{"claimData":{"provider":"prov-doctor"},"signatures":[]}]}`)

	src := NewFileProofSource(dir)
	ctx := context.Background()

	result, err := src.Verify(ctx, "prov-doctor")
	require.NoError(t, err)
	require.Len(t, result.Proofs, 1)
	assert.Equal(t, "xion1a", result.Proofs[0].ClaimData.Owner)

	cases := map[string]domain.ProofFailureKind{
		"prov-nurse":   domain.ProofCancelled,
		"prov-other":   domain.ProofFailed,
		"prov-missing": domain.ProofSessionExpired,
	}
	for provider, kind := range cases {
		_, err := src.Verify(ctx, provider)
		var pe domain.ProofFlowError
		require.ErrorAs(t, err, &pe, provider)
		assert.Equal(t, kind, pe.Kind, provider)
	}
}
