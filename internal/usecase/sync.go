package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

var ErrOffline = errors.New("device is offline")

// SyncOrchestrator creates entries and drives them into the remote store.
type SyncOrchestrator struct {
	queue   *Queue
	monitor *ConnectivityMonitor
	signing *SigningAdapter
	remote  *SubmissionClient

	initialProbeTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func NewSyncOrchestrator(
	queue *Queue,
	monitor *ConnectivityMonitor,
	signing *SigningAdapter,
	remote *SubmissionClient,
	initialProbeTimeout time.Duration,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		queue:               queue,
		monitor:             monitor,
		signing:             signing,
		remote:              remote,
		initialProbeTimeout: initialProbeTimeout,
		now:                 time.Now,
		newID:               uuid.NewString,
	}
}

// CreateEntry validates, stamps, signs and persists draft, then commits it when the
// device was online at creation. A failed commit still returns the queued entry
// (status sync_error) together with a domain.RemoteCommitError.
func (o *SyncOrchestrator) CreateEntry(ctx context.Context, sess *Session, draft domain.Draft) (domain.Entry, error) {
	ctx, span := tracer.Start(ctx, "Sync.CreateEntry")
	defer span.End()

	if err := draft.Validate(); err != nil {
		return domain.Entry{}, err
	}

	identity := sess.Identity()
	if draft.RemoteVisible() {
		if err := o.authorize(ctx, sess); err != nil {
			span.RecordError(err)
			return domain.Entry{}, err
		}
	}

	entry := domain.Entry{
		ID:          o.newID(),
		Timestamp:   o.now().UTC().Format(domain.TimestampLayout),
		Payload:     domain.Normalize(draft.Payload),
		AuthoredBy:  identity,
		RecordSetID: draft.RecordSetID,
	}
	if entry.AuthoredBy == "" {
		entry.AuthoredBy = domain.FallbackAuthor
	}

	offline := o.offlineSnapshot(ctx)
	entry.Status = domain.InitialStatus(offline, false)

	canonical, err := entry.CanonicalPayload()
	if err != nil {
		return domain.Entry{}, err
	}
	entry.Digest = fmt.Sprintf("%016x", xxh3.Hash(canonical))

	signature, err := o.signing.Sign(ctx, identity, canonical)
	if err != nil {
		entry.SigningNote = err.Error()
		slog.WarnContext(
			ctx, "entry left unsigned",
			slog.String("module", "sync"),
			slog.String("entryId", entry.ID),
			slog.String("reason", err.Error()),
		)
	} else if err := entry.AttachSignature(signature); err != nil {
		return domain.Entry{}, err
	} else {
		entry.Status = domain.InitialStatus(offline, true)
	}

	key := domain.QueueKeyFor(draft.Payload.Kind())
	if _, err := o.queue.AppendFront(ctx, key, entry); err != nil && !errors.Is(err, domain.ErrStorage) {
		return domain.Entry{}, err
	}

	span.SetAttributes(
		attribute.String("entryId", entry.ID),
		attribute.Bool("offline", offline),
		attribute.Bool("signed", entry.Signed()),
	)

	if offline {
		slog.InfoContext(
			ctx, "entry queued offline",
			slog.String("module", "sync"),
			slog.String("entryId", entry.ID),
			slog.String("status", string(entry.Status)),
		)
		return entry, nil
	}

	commitErr := o.commit(ctx, identity, &entry)
	stored, err := o.queue.Advance(ctx, key, entry)
	if err != nil && !errors.Is(err, domain.ErrStorage) {
		return entry, err
	}
	if stored.Status.IsSynced() {
		// a concurrent resync already committed it
		return stored, nil
	}
	return entry, commitErr
}

// Entries returns the queue for key, most recent first.
func (o *SyncOrchestrator) Entries(ctx context.Context, key string) ([]domain.Entry, error) {
	return o.queue.Load(ctx, key)
}

type ResyncReport struct {
	Attempted int
	Synced    int
	Failed    int
	Skipped   int
}

// Resync re-attempts commit for every unsynced entry under key, oldest first.
// Each result is written back on its own, so entries appended meanwhile and queue
// positions are left untouched.
func (o *SyncOrchestrator) Resync(ctx context.Context, sess *Session, key string) (ResyncReport, error) {
	ctx, span := tracer.Start(ctx, "Sync.Resync")
	defer span.End()

	var report ResyncReport
	if o.monitor.State() != domain.ConnectivityOnline {
		return report, ErrOffline
	}

	entries, err := o.queue.Load(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrStorage) {
		return report, err
	}

	identity := sess.Identity()
	var authErr error
	authChecked := false

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.Status.NeedsSync() {
			continue
		}
		if e.RemoteVisible() {
			if !authChecked {
				authErr = o.authorize(ctx, sess)
				authChecked = true
			}
			if authErr != nil {
				report.Skipped++
				continue
			}
		}

		report.Attempted++
		commitErr := o.commit(ctx, identity, &e)
		stored, err := o.queue.Advance(ctx, key, e)
		if err != nil && !errors.Is(err, domain.ErrStorage) {
			return report, err
		}
		if commitErr != nil && !stored.Status.IsSynced() {
			report.Failed++
		} else {
			report.Synced++
		}
	}

	slog.InfoContext(
		ctx, "resync finished",
		slog.String("module", "sync"),
		slog.String("key", key),
		slog.Int("attempted", report.Attempted),
		slog.Int("synced", report.Synced),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
	)

	if report.Skipped > 0 && authErr != nil {
		return report, authErr
	}
	if report.Failed > 0 {
		return report, domain.RemoteCommitError{Attempts: o.remote.retry.MaxAttempts(), Err: fmt.Errorf("%d entries failed to sync", report.Failed)}
	}
	return report, nil
}

// AutoResync resyncs keys on every offline→online transition until ctx is done.
func (o *SyncOrchestrator) AutoResync(ctx context.Context, sess *Session, keys ...string) {
	events, unsubscribe := o.monitor.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.From != domain.ConnectivityOffline || ev.To != domain.ConnectivityOnline {
				continue
			}
			for _, key := range keys {
				if _, err := o.Resync(ctx, sess, key); err != nil {
					slog.WarnContext(
						ctx, "auto resync incomplete",
						slog.String("module", "sync"),
						slog.String("key", key),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// offlineSnapshot decides routing once. A state still unknown after the initial probe
// timeout counts as offline, so the entry is kept local rather than committed blind.
func (o *SyncOrchestrator) offlineSnapshot(ctx context.Context) bool {
	state := o.monitor.WaitKnown(ctx, o.initialProbeTimeout)
	return state != domain.ConnectivityOnline
}

func (o *SyncOrchestrator) authorize(ctx context.Context, sess *Session) error {
	gate := sess.Gate()
	if gate == nil {
		return domain.AuthorizationDeniedError{Reason: "no verification gate for session"}
	}
	_, err := gate.Authorize(ctx, sess.Identity())
	return err
}

// commit sends e and moves it to a synced state or sync_error.
func (o *SyncOrchestrator) commit(ctx context.Context, sender string, e *domain.Entry) error {
	var err error
	if sender == "" {
		err = domain.RemoteCommitError{Err: errors.New("no identity to commit under")}
	} else {
		owner, collection, memo := commitTarget(*e, sender)
		_, err = o.remote.Commit(ctx, sender, owner, collection, e.ID, remoteForm(*e), memo)
	}

	if err != nil {
		if terr := e.MarkSyncError(err); terr != nil {
			return terr
		}
		return err
	}

	if err := e.MarkSynced(); err != nil {
		return err
	}
	slog.InfoContext(
		ctx, "entry synced",
		slog.String("module", "sync"),
		slog.String("entryId", e.ID),
		slog.String("status", string(e.Status)),
	)
	return nil
}

func commitTarget(e domain.Entry, sender string) (owner, collection, memo string) {
	kind := e.Payload.Kind()
	if e.RemoteVisible() {
		return e.RecordSetID, schemas.CollectionHealthRecords, fmt.Sprintf("Create %s record", kind)
	}
	switch kind {
	case domain.PayloadImmunization:
		return sender, schemas.CollectionImmunizationLogs, "Log immunization"
	default:
		return sender, schemas.CollectionAntenatalLogs, "Log antenatal visit"
	}
}

// remoteForm is the document stored remotely. It does not depend on local retry
// history, so every attempt for the same entry sends identical data.
func remoteForm(e domain.Entry) domain.Entry {
	e.Status = domain.SyncedStatus(e.Signed())
	e.LastError = ""
	return e
}
