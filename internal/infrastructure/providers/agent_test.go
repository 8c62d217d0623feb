package providers

import (
	"context"
	"encoding/hex"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/carelog/internal/config"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/present/rest"
	"github.com/totegamma/carelog/internal/present/rest/middleware"
	"github.com/totegamma/carelog/internal/service"
	"github.com/totegamma/carelog/internal/usecase"
	"github.com/totegamma/carelog/schemas"
)

func startDocustore(t *testing.T) *httptest.Server {
	t.Helper()

	conf := config.DefaultDocustore()
	conf.Server.SqlitePath = filepath.Join(t.TempDir(), "docustore.db")

	db, err := NewDatabase(conf.Server)
	require.NoError(t, err)
	document, err := NewDocumentUsecase(conf, db, nil, nil)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.NewAuthMiddleware(service.NewAuthService(conf.Contracts())).IdentifyIdentity)
	rest.NewHandler(conf.Contract, document, nil).RegisterRoutes(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func agentConfig(t *testing.T, endpoint string) config.Agent {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyfile := filepath.Join(t.TempDir(), "identity.key")
	require.NoError(t, os.WriteFile(keyfile, []byte(hex.EncodeToString(crypto.FromECDSA(key))), 0o600))

	conf := config.DefaultAgent()
	conf.Identity.KeyFile = keyfile
	conf.Store.Path = filepath.Join(t.TempDir(), "queue")
	conf.Remote.Endpoint = endpoint
	conf.Retry.BaseDelay = time.Millisecond
	conf.Connectivity.ProbeInterval = time.Hour
	return conf
}

func antenatalDraft() domain.Draft {
	return domain.Draft{Payload: domain.Antenatal{
		BloodPressure: domain.BloodPressure{Systolic: "120", Diastolic: "80"},
		Weight:        "65.5",
		FundalHeight:  "28",
		TestResults:   "Hb 12",
	}}
}

func TestAgentCommitsAgainstDocustore(t *testing.T) {
	srv := startDocustore(t)
	conf := agentConfig(t, srv.URL)

	agent, err := NewAgent(conf)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agent.Open(ctx)
	assert.Equal(t, domain.RolePatient, agent.Session.Role())

	entry, err := agent.Sync.CreateEntry(ctx, agent.Session, antenatalDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSyncedOnlineSigned, entry.Status)
	require.NoError(t, usecase.VerifyEntry(entry))

	doc, err := agent.Records.QueryOne(ctx, agent.Keys.Address(), schemas.CollectionAntenatalLogs, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NoError(t, agent.Close())

	reopened, err := NewAgent(conf)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Sync.Entries(ctx, domain.QueueKeyAntenatal)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, domain.StatusSyncedOnlineSigned, entries[0].Status)
}

func TestAgentQueuesWhileUnreachable(t *testing.T) {
	conf := agentConfig(t, "http://127.0.0.1:1")
	conf.Connectivity.InitialProbeTimeout = 5 * time.Second

	agent, err := NewAgent(conf)
	require.NoError(t, err)
	defer agent.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agent.Open(ctx)

	entry, err := agent.Sync.CreateEntry(ctx, agent.Session, antenatalDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingOfflineSigned, entry.Status)

	_, err = agent.Sync.Resync(ctx, agent.Session, domain.QueueKeyAntenatal)
	assert.ErrorIs(t, err, usecase.ErrOffline)
}
