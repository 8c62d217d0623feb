package usecase

import (
	"context"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
)

// QueueStore is the durable key→value store behind the Durable Queue.
// Get returns domain.ErrNotFound for an absent key.
type QueueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// DocumentGateway is the account provider's execute/query capability.
type DocumentGateway interface {
	Execute(ctx context.Context, sender string, contract string, msg carelog.ExecuteMessage, fee string, memo *string) (carelog.Receipt, error)
	QueryContractSmart(ctx context.Context, contract string, query carelog.QueryMessage) (carelog.QueryResponse, error)
}

// Signer produces a detached signature over message with the key behind identity.
type Signer interface {
	Sign(ctx context.Context, identity string, message []byte) (string, error)
}

// ProofSource runs the external license attestation flow.
// Failures should be domain.ProofFlowError.
type ProofSource interface {
	Verify(ctx context.Context, providerID string) (domain.VerificationResult, error)
}

// ConnectivityProbe answers whether the remote store is currently reachable.
type ConnectivityProbe interface {
	Reachable(ctx context.Context) bool
}

// DocumentRepository is the docustore persistence port.
type DocumentRepository interface {
	Set(ctx context.Context, doc carelog.Document) (carelog.Receipt, error)
	Get(ctx context.Context, owner, collection, documentID string) (carelog.Document, error)
	List(ctx context.Context, owner, collection string) ([]carelog.Document, error)
}

// EventPublisher fans accepted documents out to realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event carelog.Event) error
}
