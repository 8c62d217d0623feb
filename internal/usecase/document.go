package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/policy"
	"github.com/totegamma/carelog/schemas"
)

// DocumentUsecase is the remote store's side of execute and query.
type DocumentUsecase struct {
	repo      DocumentRepository
	publisher EventPublisher
	contracts []string
	admins    []string
	schemas   map[string]*gojsonschema.Schema
}

func NewDocumentUsecase(repo DocumentRepository, publisher EventPublisher, contracts []string, admins []string) (*DocumentUsecase, error) {
	compiled := make(map[string]*gojsonschema.Schema, len(schemas.Documents))
	for collection, src := range schemas.Documents {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", collection, err)
		}
		compiled[collection] = schema
	}

	return &DocumentUsecase{
		repo:      repo,
		publisher: publisher,
		contracts: contracts,
		admins:    admins,
		schemas:   compiled,
	}, nil
}

// Execute applies a Set sent by requester. Replaying an identical Set returns the first
// receipt; a different document under the same id is a domain.ConflictError.
func (uc *DocumentUsecase) Execute(ctx context.Context, requester string, req carelog.ExecuteRequest) (carelog.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Document.Execute")
	defer span.End()

	if !slices.Contains(uc.contracts, req.Contract) {
		return carelog.Receipt{}, domain.NotFoundError{Resource: "contract " + req.Contract}
	}
	if requester == "" || requester != req.Sender {
		return carelog.Receipt{}, domain.AuthorizationDeniedError{Reason: "sender is not the authenticated requester"}
	}

	set := req.Message.Set
	if set == nil {
		return carelog.Receipt{}, domain.ValidationError{Fields: []string{"message.Set"}}
	}
	var missing []string
	if set.Owner == "" {
		missing = append(missing, "owner")
	}
	if set.Collection == "" {
		missing = append(missing, "collection")
	}
	if set.DocumentID == "" {
		missing = append(missing, "document_id")
	}
	if len(missing) > 0 {
		return carelog.Receipt{}, domain.ValidationError{Fields: missing}
	}
	span.SetAttributes(attribute.String("uri", carelog.ComposeDocumentURI(set.Owner, set.Collection, set.DocumentID)))

	if err := uc.validate(set.Collection, set.Data); err != nil {
		return carelog.Receipt{}, err
	}

	allowed, err := uc.allowed(ctx, requester, set)
	if err != nil {
		span.RecordError(err)
		return carelog.Receipt{}, err
	}
	if !allowed {
		return carelog.Receipt{}, domain.AuthorizationDeniedError{Reason: fmt.Sprintf("%s may not write %s", requester, set.Collection)}
	}

	doc := carelog.Document{
		ID:         set.DocumentID,
		Owner:      set.Owner,
		Collection: set.Collection,
		Data:       set.Data,
		Sender:     req.Sender,
	}
	if req.Memo != nil {
		doc.Memo = *req.Memo
	}
	receipt, err := uc.repo.Set(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return carelog.Receipt{}, err
	}
	receipt.Contract = req.Contract

	if uc.publisher != nil {
		event := carelog.Event{
			URI:       carelog.ComposeDocumentURI(set.Owner, set.Collection, set.DocumentID),
			Contract:  req.Contract,
			Sender:    req.Sender,
			Timestamp: time.Now(),
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			slog.WarnContext(
				ctx, "failed to publish document event",
				slog.String("module", "document"),
				slog.String("uri", event.URI),
				slog.String("error", err.Error()),
			)
		}
	}

	return receipt, nil
}

// Query answers UserDocument and UserDocuments queries. A missing document is an empty response.
func (uc *DocumentUsecase) Query(ctx context.Context, req carelog.QueryRequest) (carelog.QueryResponse, error) {
	ctx, span := tracer.Start(ctx, "Document.Query")
	defer span.End()

	if !slices.Contains(uc.contracts, req.Contract) {
		return carelog.QueryResponse{}, domain.NotFoundError{Resource: "contract " + req.Contract}
	}

	switch {
	case req.Query.UserDocument != nil:
		q := req.Query.UserDocument
		doc, err := uc.repo.Get(ctx, q.Owner, q.Collection, q.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return carelog.QueryResponse{}, nil
			}
			return carelog.QueryResponse{}, err
		}
		return carelog.QueryResponse{Document: &doc}, nil
	case req.Query.UserDocuments != nil:
		q := req.Query.UserDocuments
		docs, err := uc.repo.List(ctx, q.Owner, q.Collection)
		if err != nil {
			return carelog.QueryResponse{}, err
		}
		return carelog.QueryResponse{Documents: docs}, nil
	default:
		return carelog.QueryResponse{}, domain.ValidationError{Fields: []string{"query"}}
	}
}

func (uc *DocumentUsecase) validate(collection, data string) error {
	schema, ok := uc.schemas[collection]
	if !ok {
		return domain.NotFoundError{Resource: "collection " + collection}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(data))
	if err != nil {
		return domain.ValidationError{Fields: []string{"data: " + err.Error()}}
	}
	if !result.Valid() {
		fields := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			fields = append(fields, desc.String())
		}
		return domain.ValidationError{Fields: fields}
	}
	return nil
}

func (uc *DocumentUsecase) allowed(ctx context.Context, requester string, set *carelog.SetDocument) (bool, error) {
	hasLicense := false
	if set.Collection == schemas.CollectionHealthRecords {
		_, err := uc.repo.Get(ctx, requester, schemas.CollectionLicenseProofs, requester)
		switch {
		case err == nil:
			hasLicense = true
		case errors.Is(err, domain.ErrNotFound):
		default:
			return false, err
		}
	}

	return policy.Allowed(set.Collection, policy.ActionSet, policy.RequestContext{
		Requester: requester,
		Document: policy.DocumentRef{
			Owner:      set.Owner,
			Collection: set.Collection,
			ID:         set.DocumentID,
		},
		Params: map[string]any{
			"admins":     uc.admins,
			"hasLicense": hasLicense,
		},
	})
}
