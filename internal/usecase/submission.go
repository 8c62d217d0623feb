package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
)

var tracer = otel.Tracer("usecase")

// SubmissionClient issues Set and document queries against one contract, each through the Retrier.
type SubmissionClient struct {
	gateway  DocumentGateway
	retry    *Retrier
	contract string
}

func NewSubmissionClient(gateway DocumentGateway, retry *Retrier, contract string) *SubmissionClient {
	return &SubmissionClient{
		gateway:  gateway,
		retry:    retry,
		contract: contract,
	}
}

func (c *SubmissionClient) Contract() string { return c.contract }

// Commit sets owner/collection/documentID to data on behalf of sender. The document id
// must be stable for the logical record so that retries are idempotent remotely.
func (c *SubmissionClient) Commit(ctx context.Context, sender, owner, collection, documentID string, data any, memo string) (carelog.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Submission.Commit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("documentId", documentID),
	)

	raw, err := json.Marshal(data)
	if err != nil {
		return carelog.Receipt{}, errors.Wrap(err, "marshal document")
	}

	msg := carelog.ExecuteMessage{
		Set: &carelog.SetDocument{
			Owner:      owner,
			Collection: collection,
			DocumentID: documentID,
			Data:       string(raw),
		},
	}
	var memoPtr *string
	if memo != "" {
		memoPtr = &memo
	}

	receipt, attempts, err := Run(ctx, c.retry, func(ctx context.Context) (carelog.Receipt, error) {
		return c.gateway.Execute(ctx, sender, c.contract, msg, carelog.FeeAuto, memoPtr)
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "Submission.Commit: execute failed"))
		slog.ErrorContext(
			ctx, "commit failed",
			slog.String("module", "submission"),
			slog.String("uri", carelog.ComposeDocumentURI(owner, collection, documentID)),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()),
		)
		return carelog.Receipt{}, domain.RemoteCommitError{Attempts: attempts, Err: err}
	}
	return receipt, nil
}

// QueryOne returns nil without error when the document does not exist.
func (c *SubmissionClient) QueryOne(ctx context.Context, owner, collection, documentID string) (*carelog.Document, error) {
	ctx, span := tracer.Start(ctx, "Submission.QueryOne", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	query := carelog.QueryMessage{
		UserDocument: &carelog.UserDocumentQuery{
			Owner:      owner,
			Collection: collection,
			DocumentID: documentID,
		},
	}
	resp, attempts, err := Run(ctx, c.retry, func(ctx context.Context) (carelog.QueryResponse, error) {
		return c.gateway.QueryContractSmart(ctx, c.contract, query)
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "Submission.QueryOne: query failed"))
		return nil, domain.RemoteQueryError{Attempts: attempts, Err: err}
	}
	return resp.Document, nil
}

func (c *SubmissionClient) QueryMany(ctx context.Context, owner, collection string) ([]carelog.Document, error) {
	ctx, span := tracer.Start(ctx, "Submission.QueryMany", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	query := carelog.QueryMessage{
		UserDocuments: &carelog.UserDocumentsQuery{
			Owner:      owner,
			Collection: collection,
		},
	}
	resp, attempts, err := Run(ctx, c.retry, func(ctx context.Context) (carelog.QueryResponse, error) {
		return c.gateway.QueryContractSmart(ctx, c.contract, query)
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "Submission.QueryMany: query failed"))
		return nil, domain.RemoteQueryError{Attempts: attempts, Err: err}
	}
	return resp.Documents, nil
}

// decodeDocument unmarshals the data of a queried document into v.
func decodeDocument(doc *carelog.Document, v any) error {
	if doc == nil {
		return domain.ErrNotFound
	}
	return json.Unmarshal([]byte(doc.Data), v)
}
