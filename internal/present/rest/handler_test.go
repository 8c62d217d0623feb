package rest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/infrastructure/database"
	"github.com/totegamma/carelog/internal/infrastructure/repository"
	"github.com/totegamma/carelog/internal/present/rest/middleware"
	"github.com/totegamma/carelog/internal/service"
	"github.com/totegamma/carelog/internal/usecase"
	"github.com/totegamma/carelog/jwt"
)

const testContract = "carelog-records"

type testServer struct {
	e       *echo.Echo
	address string
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "docustore.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	document, err := usecase.NewDocumentUsecase(
		repository.NewDocumentRepository(db, nil), nil,
		[]string{testContract, "carelog-proofs"}, nil,
	)
	require.NoError(t, err)

	e := echo.New()
	auth := middleware.NewAuthMiddleware(service.NewAuthService([]string{testContract, "carelog-proofs"}))
	e.Use(auth.IdentifyIdentity)
	NewHandler(testContract, document, nil).RegisterRoutes(e)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	priv := hex.EncodeToString(crypto.FromECDSA(key))
	address, err := carelog.PrivKeyToAddr(priv, carelog.AddressPrefix)
	require.NoError(t, err)
	token, err := jwt.Create(jwt.NewClaims(address, testContract, time.Minute), priv)
	require.NoError(t, err)

	return &testServer{e: e, address: address, token: token}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func entryData(id, author, weight string) string {
	return `{"id":"` + id + `","timestamp":"2025-03-04T10:20:30.000Z","payload":{"type":"antenatal","bloodPressure":{"systolic":"120","diastolic":"80"},"weight":"` + weight + `","fundalHeight":"28","testResults":"Hb 12"},"authoredBy":"` + author + `","signature":"","status":"synced_online"}`
}

func (s *testServer) setRequest(id, weight string) carelog.ExecuteRequest {
	return carelog.ExecuteRequest{
		Contract: testContract,
		Sender:   s.address,
		Fee:      carelog.FeeAuto,
		Message: carelog.ExecuteMessage{Set: &carelog.SetDocument{
			Owner:      s.address,
			Collection: "antenatal_logs",
			DocumentID: id,
			Data:       entryData(id, s.address, weight),
		}},
	}
}

func TestExecuteAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/execute", "", s.setRequest("e1", "65.5"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/execute", s.token, s.setRequest("e1", "65.5"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first carelog.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, testContract, first.Contract)

	rec = s.do(t, http.MethodPost, "/execute", s.token, s.setRequest("e1", "65.5"))
	require.Equal(t, http.StatusOK, rec.Code)
	var replay carelog.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replay))
	assert.Equal(t, first.TransactionHash, replay.TransactionHash)

	rec = s.do(t, http.MethodPost, "/execute", s.token, s.setRequest("e1", "70"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/query", "", carelog.QueryRequest{
		Contract: testContract,
		Query: carelog.QueryMessage{UserDocument: &carelog.UserDocumentQuery{
			Owner: s.address, Collection: "antenatal_logs", DocumentID: "e1",
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp carelog.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Document)
	assert.JSONEq(t, entryData("e1", s.address, "65.5"), resp.Document.Data)
}

func TestExecuteRejectsInvalidDocuments(t *testing.T) {
	s := newTestServer(t)

	req := s.setRequest("e2", "65.5")
	req.Message.Set.Data = `{"id":"e2"}`
	rec := s.do(t, http.MethodPost, "/execute", s.token, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = s.setRequest("e3", "65.5")
	req.Message.Set.Owner = "xion1someoneelse"
	rec = s.do(t, http.MethodPost, "/execute", s.token, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = s.setRequest("e4", "65.5")
	req.Contract = "unknown"
	rec = s.do(t, http.MethodPost, "/execute", s.token, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWellKnownAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/.well-known/carelog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wk carelog.WellKnown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wk))
	assert.Equal(t, testContract, wk.Contract)
	assert.Equal(t, "/execute", wk.Endpoints[carelog.EndpointExecute])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/realtime", "", nil).Code)
}
