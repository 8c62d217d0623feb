package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

func TestLinkAndLoad(t *testing.T) {
	h := newHarness(t, true)
	svc := NewLinkageService(h.remote)
	ctx := context.Background()

	if _, err := svc.Link(ctx, h.session, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}

	linkage, err := svc.Link(ctx, h.session, " rs-42 ")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if linkage.LinkedUUID != "rs-42" || linkage.PatientAddress != h.signer.address {
		t.Fatalf("unexpected linkage %+v", linkage)
	}

	fresh := NewSession(h.signer.address, nil)
	loaded, err := svc.Load(ctx, fresh)
	if err != nil || loaded == nil || loaded.LinkedUUID != "rs-42" {
		t.Fatalf("load: %+v %v", loaded, err)
	}

	if _, err := svc.Link(ctx, h.session, "rs-other"); !errors.Is(err, domain.ErrRemoteCommit) {
		t.Fatalf("relinking should surface the remote conflict, got %v", err)
	}
}

func TestLoadWithoutLinkage(t *testing.T) {
	h := newHarness(t, true)
	loaded, err := NewLinkageService(h.remote).Load(context.Background(), h.session)
	if err != nil || loaded != nil {
		t.Fatalf("expected no linkage, got %+v %v", loaded, err)
	}
}

func TestViewRecordsKeepsPriorOnError(t *testing.T) {
	h := newHarness(t, true)
	h.addProfile(true)
	ctx := context.Background()
	svc := NewLinkageService(h.remote)

	if _, err := svc.Link(ctx, h.session, "rs-7"); err != nil {
		t.Fatalf("link: %v", err)
	}

	for i := 0; i < 2; i++ {
		draft := antenatalDraft()
		draft.RecordSetID = "rs-7"
		if _, err := h.orch.CreateEntry(ctx, h.session, draft); err != nil {
			t.Fatalf("create record: %v", err)
		}
	}
	if h.gateway.count("rs-7", schemas.CollectionHealthRecords) != 2 {
		t.Fatalf("records were not committed")
	}

	records, err := svc.ViewRecords(ctx, h.session)
	if err != nil || len(records) != 2 {
		t.Fatalf("view: %d %v", len(records), err)
	}
	if records[0].Timestamp < records[1].Timestamp {
		t.Fatalf("records should be newest first")
	}

	h.gateway.failQuery = -1
	prior, err := svc.ViewRecords(ctx, h.session)
	if !errors.Is(err, domain.ErrRemoteQuery) {
		t.Fatalf("expected query error, got %v", err)
	}
	if len(prior) != 2 {
		t.Fatalf("prior records discarded on error: %d", len(prior))
	}
}
