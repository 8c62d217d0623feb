package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/totegamma/carelog/client"
	"github.com/totegamma/carelog/internal/config"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/infrastructure/database"
	"github.com/totegamma/carelog/internal/infrastructure/gateway"
	"github.com/totegamma/carelog/internal/infrastructure/repository"
	"github.com/totegamma/carelog/internal/infrastructure/signer"
	"github.com/totegamma/carelog/internal/usecase"
)

// Agent is one device session with every core component wired.
type Agent struct {
	Config  config.Agent
	Client  *client.Client
	Keys    *signer.Keystore
	Monitor *usecase.ConnectivityMonitor
	Queue   *usecase.Queue
	Records *usecase.SubmissionClient
	Proofs  *usecase.SubmissionClient
	Gate    *usecase.Gate
	Sync    *usecase.SyncOrchestrator
	Linkage *usecase.LinkageService
	Session *usecase.Session

	db *leveldb.DB
}

// NewAgent opens the local store and builds the components. Nothing touches the
// network until Open.
func NewAgent(conf config.Agent) (*Agent, error) {
	var keys *signer.Keystore
	identity := conf.Identity.Address
	if conf.Identity.KeyFile != "" {
		ks, err := signer.LoadKeystore(conf.Identity.KeyFile)
		if err != nil {
			return nil, err
		}
		if identity != "" && identity != ks.Address() {
			return nil, fmt.Errorf("keyfile belongs to %s, not %s", ks.Address(), identity)
		}
		keys = ks
		identity = ks.Address()
	}

	db, err := database.NewLevelDB(conf.Store.Path)
	if err != nil {
		return nil, err
	}

	cl := client.New(conf.Remote.Endpoint)

	var tokens gateway.TokenIssuer
	var sig usecase.Signer
	if keys != nil {
		tokens = keys
		sig = keys
	}
	gw := gateway.NewDocustoreGateway(cl, tokens)
	retry := usecase.NewRetrier(conf.Retry.MaxAttempts, conf.Retry.BaseDelay)

	records := usecase.NewSubmissionClient(gw, retry, conf.Remote.Contract)
	proofs := usecase.NewSubmissionClient(gw, retry, conf.Remote.ProofContract)
	gate := usecase.NewGate(records, proofs, gateway.NewFileProofSource(conf.Verification.ProofDir), conf.Verification.Providers)

	monitor := usecase.NewConnectivityMonitor(gateway.NewHealthProbe(cl), conf.Connectivity.ProbeInterval)
	queue := usecase.NewQueue(repository.NewLevelQueueStore(db))

	return &Agent{
		Config:  conf,
		Client:  cl,
		Keys:    keys,
		Monitor: monitor,
		Queue:   queue,
		Records: records,
		Proofs:  proofs,
		Gate:    gate,
		Sync:    usecase.NewSyncOrchestrator(queue, monitor, usecase.NewSigningAdapter(sig), records, conf.Connectivity.InitialProbeTimeout),
		Linkage: usecase.NewLinkageService(records),
		Session: usecase.NewSession(identity, gate),
		db:      db,
	}, nil
}

// Open starts connectivity monitoring and, when online with an identity, loads the
// actor's role, authorization and linkage. Lookup failures are logged, not fatal.
func (a *Agent) Open(ctx context.Context) {
	a.Monitor.Start(ctx)

	if a.Config.Sync.AutoResync {
		go a.Sync.AutoResync(ctx, a.Session, domain.QueueKeyAntenatal, domain.QueueKeyImmunization)
	}

	identity := a.Session.Identity()
	if identity == "" {
		return
	}
	if a.Monitor.WaitKnown(ctx, a.Config.Connectivity.InitialProbeTimeout) != domain.ConnectivityOnline {
		slog.InfoContext(
			ctx, "starting offline, profile not loaded",
			slog.String("module", "agent"),
		)
		return
	}

	if _, err := a.Session.ResolveRole(ctx, a.Records); err != nil {
		warn(ctx, "role", err)
	}
	if _, err := a.Gate.Load(ctx, identity); err != nil && !errors.Is(err, domain.ErrNotFound) {
		warn(ctx, "profile", err)
	}
	if _, err := a.Linkage.Load(ctx, a.Session); err != nil {
		warn(ctx, "linkage", err)
	}
}

func (a *Agent) Close() error {
	a.Session.Close()
	return a.db.Close()
}

func warn(ctx context.Context, what string, err error) {
	slog.WarnContext(
		ctx, what+" lookup failed",
		slog.String("module", "agent"),
		slog.String("error", err.Error()),
	)
}
