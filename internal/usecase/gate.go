package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

// Gate tracks whether the actor may author remote-visible records.
// Authorization is re-derived from the remote store on every Authorize call.
type Gate struct {
	profiles  *SubmissionClient
	proofs    *SubmissionClient
	source    ProofSource
	providers map[domain.RoleClaim]string

	mu      sync.Mutex
	state   domain.GateState
	auth    *domain.Authorization
	lastErr error
}

func NewGate(profiles, proofs *SubmissionClient, source ProofSource, providers map[domain.RoleClaim]string) *Gate {
	return &Gate{
		profiles:  profiles,
		proofs:    proofs,
		source:    source,
		providers: providers,
		state:     domain.GateUnloaded,
	}
}

func (g *Gate) State() domain.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Err is the failure that moved the gate to error, if any.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *Gate) Authorization() (domain.Authorization, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.auth == nil {
		return domain.Authorization{}, false
	}
	return *g.auth, true
}

// Load fetches the profile and proof status for identity.
func (g *Gate) Load(ctx context.Context, identity string) (domain.Authorization, error) {
	ctx, span := tracer.Start(ctx, "Gate.Load")
	defer span.End()

	auth, err := g.fetch(ctx, identity)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, domain.ErrNotFound) {
			g.fail(ctx, err)
		}
		return domain.Authorization{}, err
	}

	g.mu.Lock()
	g.auth = &auth
	g.mu.Unlock()

	if auth.LicenseVerified {
		g.move(ctx, domain.GateVerified)
	} else {
		g.move(ctx, domain.GateLoadedUnverified)
	}
	return auth, nil
}

// Authorize re-fetches the profile and proof status and permits remote-visible authoring
// only when the license is verified now. It never consults earlier results.
func (g *Gate) Authorize(ctx context.Context, identity string) (domain.Authorization, error) {
	ctx, span := tracer.Start(ctx, "Gate.Authorize")
	defer span.End()

	if identity == "" {
		return domain.Authorization{}, domain.AuthorizationDeniedError{Reason: "no signed-in identity"}
	}

	auth, err := g.fetch(ctx, identity)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Authorization{}, domain.AuthorizationDeniedError{Reason: "no healthcare worker profile", Err: err}
		}
		return domain.Authorization{}, domain.AuthorizationDeniedError{Reason: "authorization could not be confirmed", Err: err}
	}

	g.mu.Lock()
	g.auth = &auth
	current := g.state
	g.mu.Unlock()

	if !auth.LicenseVerified {
		if current == domain.GateVerified || current == domain.GateUnloaded {
			g.move(ctx, domain.GateLoadedUnverified)
		}
		return auth, domain.AuthorizationDeniedError{Reason: "license not verified"}
	}

	if current != domain.GateVerified && !current.Busy() {
		g.move(ctx, domain.GateVerified)
	}
	return auth, nil
}

// StartVerification runs the external proof flow for claim and submits the resulting proof.
// It is also the retry path out of the error state.
func (g *Gate) StartVerification(ctx context.Context, identity string, claim domain.RoleClaim) error {
	ctx, span := tracer.Start(ctx, "Gate.StartVerification")
	defer span.End()

	g.mu.Lock()
	current := g.state
	g.mu.Unlock()
	if !current.CanTransition(domain.GateVerifying) {
		return domain.InvalidTransitionError{From: string(current), To: string(domain.GateVerifying)}
	}
	g.move(ctx, domain.GateVerifying)

	providerID, ok := g.providers[claim]
	if !ok || providerID == "" {
		err := domain.ProofFlowError{Kind: domain.ProofFailed, Err: errors.New("unknown role claim " + string(claim))}
		g.fail(ctx, err)
		return err
	}

	result, err := g.source.Verify(ctx, providerID)
	if err != nil {
		var pf domain.ProofFlowError
		if !errors.As(err, &pf) {
			pf = domain.ProofFlowError{Kind: domain.ProofFailed, Err: err}
		}
		span.RecordError(pf)
		g.fail(ctx, pf)
		return pf
	}
	if len(result.Proofs) == 0 {
		err := domain.ProofFlowError{Kind: domain.ProofFailed, Err: errors.New("no proofs returned")}
		g.fail(ctx, err)
		return err
	}
	g.move(ctx, domain.GateVerificationComplete)

	g.move(ctx, domain.GateExecuting)
	submission := domain.NewProofSubmission(result.Proofs[0])
	_, err = g.proofs.Commit(ctx, identity, identity, schemas.CollectionLicenseProofs, identity, submission, "Submit license proof")
	if err != nil && errors.Is(err, domain.ErrConflict) {
		// a proof from an earlier flow is already stored for identity
		if stored, qerr := g.QueryProofStatus(ctx, identity); qerr == nil && stored {
			err = nil
		}
	}
	if err != nil {
		span.RecordError(err)
		g.fail(ctx, err)
		return err
	}

	g.mu.Lock()
	if g.auth != nil {
		g.auth.LicenseVerified = true
	}
	g.mu.Unlock()
	g.move(ctx, domain.GateVerified)
	return nil
}

// Retry re-enters verification after a failure.
func (g *Gate) Retry(ctx context.Context, identity string, claim domain.RoleClaim) error {
	if st := g.State(); st != domain.GateError {
		return domain.InvalidTransitionError{From: string(st), To: string(domain.GateVerifying)}
	}
	return g.StartVerification(ctx, identity, claim)
}

// Reset returns the gate to unloaded at session teardown.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = domain.GateUnloaded
	g.auth = nil
	g.lastErr = nil
}

// QueryProofStatus reports whether a license proof is stored for identity.
func (g *Gate) QueryProofStatus(ctx context.Context, identity string) (bool, error) {
	doc, err := g.proofs.QueryOne(ctx, identity, schemas.CollectionLicenseProofs, identity)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

func (g *Gate) fetch(ctx context.Context, identity string) (domain.Authorization, error) {
	doc, err := g.profiles.QueryOne(ctx, identity, schemas.CollectionProfiles, identity)
	if err != nil {
		return domain.Authorization{}, err
	}
	var profile domain.HWProfile
	if err := decodeDocument(doc, &profile); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Authorization{}, domain.NotFoundError{Resource: "profile"}
		}
		return domain.Authorization{}, domain.RemoteQueryError{Attempts: 1, Err: err}
	}
	if profile.Bech32Address == "" {
		profile.Bech32Address = identity
	}

	verified, err := g.QueryProofStatus(ctx, identity)
	if err != nil {
		return domain.Authorization{}, err
	}
	return domain.NewAuthorization(profile, verified), nil
}

func (g *Gate) move(ctx context.Context, to domain.GateState) {
	g.mu.Lock()
	from := g.state
	g.state = to
	if to != domain.GateError {
		g.lastErr = nil
	}
	g.mu.Unlock()

	if from != to {
		slog.InfoContext(
			ctx, "gate state changed",
			slog.String("module", "gate"),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
	}
}

func (g *Gate) fail(ctx context.Context, err error) {
	g.mu.Lock()
	from := g.state
	g.state = domain.GateError
	g.lastErr = err
	g.mu.Unlock()

	slog.WarnContext(
		ctx, "gate moved to error",
		slog.String("module", "gate"),
		slog.String("from", string(from)),
		slog.String("error", err.Error()),
	)
}
