package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

// LinkageService links a patient identity to the record set holding their health records.
type LinkageService struct {
	remote *SubmissionClient
	prior  *cache.Cache
}

func NewLinkageService(remote *SubmissionClient) *LinkageService {
	return &LinkageService{
		remote: remote,
		prior:  cache.New(24*time.Hour, time.Hour),
	}
}

// NewRecordSet returns a fresh record set identifier.
func NewRecordSet() string {
	return uuid.NewString()
}

// Link stores patient_linkage/<identity>. The remote store accepts one linkage per
// identity; a second, different one comes back as a domain.RemoteCommitError.
func (l *LinkageService) Link(ctx context.Context, sess *Session, recordSetID string) (domain.Linkage, error) {
	ctx, span := tracer.Start(ctx, "Linkage.Link")
	defer span.End()

	recordSetID = strings.TrimSpace(recordSetID)
	if recordSetID == "" {
		return domain.Linkage{}, domain.ValidationError{Fields: []string{"recordSetId"}}
	}
	identity := sess.Identity()
	if identity == "" {
		return domain.Linkage{}, domain.AuthorizationDeniedError{Reason: "no signed-in identity"}
	}

	linkage := domain.Linkage{PatientAddress: identity, LinkedUUID: recordSetID}
	_, err := l.remote.Commit(ctx, identity, identity, schemas.CollectionLinkage, identity, linkage, "Link patient records")
	if err != nil {
		span.RecordError(err)
		return domain.Linkage{}, err
	}

	sess.setLinkage(&linkage)
	slog.InfoContext(
		ctx, "patient records linked",
		slog.String("module", "linkage"),
		slog.String("identity", identity),
		slog.String("recordSetId", recordSetID),
	)
	return linkage, nil
}

// Load reads the session's linkage. It returns nil without error when none exists.
func (l *LinkageService) Load(ctx context.Context, sess *Session) (*domain.Linkage, error) {
	identity := sess.Identity()
	if identity == "" {
		return nil, domain.AuthorizationDeniedError{Reason: "no signed-in identity"}
	}

	doc, err := l.remote.QueryOne(ctx, identity, schemas.CollectionLinkage, identity)
	if err != nil {
		return nil, err
	}
	var linkage domain.Linkage
	if err := decodeDocument(doc, &linkage); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.RemoteQueryError{Attempts: 1, Err: err}
	}

	sess.setLinkage(&linkage)
	return &linkage, nil
}

// ViewRecords lists the health records of the linked record set, newest first.
// On a query failure the previously fetched records are returned together with the error.
func (l *LinkageService) ViewRecords(ctx context.Context, sess *Session) ([]domain.Entry, error) {
	ctx, span := tracer.Start(ctx, "Linkage.ViewRecords")
	defer span.End()

	linkage := sess.Linkage()
	if linkage == nil {
		return nil, domain.NotFoundError{Resource: "linkage"}
	}

	prior := l.priorRecords(linkage.LinkedUUID)

	docs, err := l.remote.QueryMany(ctx, linkage.LinkedUUID, schemas.CollectionHealthRecords)
	if err != nil {
		span.RecordError(err)
		return prior, err
	}

	records := make([]domain.Entry, 0, len(docs))
	for i := range docs {
		var e domain.Entry
		if err := decodeDocument(&docs[i], &e); err != nil {
			slog.WarnContext(
				ctx, "skipping undecodable health record",
				slog.String("module", "linkage"),
				slog.String("documentId", docs[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, e)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	l.prior.Set(linkage.LinkedUUID, records, cache.DefaultExpiration)
	return records, nil
}

func (l *LinkageService) priorRecords(recordSetID string) []domain.Entry {
	x, found := l.prior.Get(recordSetID)
	if !found {
		return nil
	}
	return x.([]domain.Entry)
}
