package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

type mockDocumentRepo struct {
	docs map[string]carelog.Document
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]carelog.Document)}
}

func (m *mockDocumentRepo) Set(ctx context.Context, doc carelog.Document) (carelog.Receipt, error) {
	uri := carelog.ComposeDocumentURI(doc.Owner, doc.Collection, doc.ID)
	if existing, ok := m.docs[uri]; ok && existing.Data != doc.Data {
		return carelog.Receipt{}, domain.ConflictError{URI: uri}
	}
	m.docs[uri] = doc
	return carelog.Receipt{Owner: doc.Owner, Collection: doc.Collection, DocumentID: doc.ID}, nil
}

func (m *mockDocumentRepo) Get(ctx context.Context, owner, collection, documentID string) (carelog.Document, error) {
	doc, ok := m.docs[carelog.ComposeDocumentURI(owner, collection, documentID)]
	if !ok {
		return carelog.Document{}, domain.NotFoundError{Resource: "document"}
	}
	return doc, nil
}

func (m *mockDocumentRepo) List(ctx context.Context, owner, collection string) ([]carelog.Document, error) {
	var out []carelog.Document
	for _, d := range m.docs {
		if d.Owner == owner && d.Collection == collection {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockPublisher struct {
	events []carelog.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event carelog.Event) error {
	m.events = append(m.events, event)
	return nil
}

func setRequest(sender, owner, collection, id, data string) carelog.ExecuteRequest {
	return carelog.ExecuteRequest{
		Contract: "contract-main",
		Sender:   sender,
		Message: carelog.ExecuteMessage{Set: &carelog.SetDocument{
			Owner: owner, Collection: collection, DocumentID: id, Data: data,
		}},
		Fee: carelog.FeeAuto,
	}
}

const validEntry = `{"id":"e1","timestamp":"2025-03-04T10:20:30.000Z","authoredBy":"xion1alice","status":"synced_online","payload":{"type":"antenatal"}}`

func newDocumentUsecase(t *testing.T) (*DocumentUsecase, *mockDocumentRepo, *mockPublisher) {
	t.Helper()
	repo := newMockDocumentRepo()
	pub := &mockPublisher{}
	uc, err := NewDocumentUsecase(repo, pub, []string{"contract-main"}, []string{"xion1admin"})
	if err != nil {
		t.Fatalf("new usecase: %v", err)
	}
	return uc, repo, pub
}

func TestDocumentExecuteOwnLog(t *testing.T) {
	uc, _, pub := newDocumentUsecase(t)
	ctx := context.Background()

	req := setRequest("xion1alice", "xion1alice", schemas.CollectionAntenatalLogs, "e1", validEntry)
	if _, err := uc.Execute(ctx, "xion1alice", req); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].URI != "doc://xion1alice/antenatal_logs/e1" {
		t.Fatalf("unexpected events %+v", pub.events)
	}

	if _, err := uc.Execute(ctx, "xion1alice", req); err != nil {
		t.Fatalf("identical replay should succeed: %v", err)
	}

	resp, err := uc.Query(ctx, carelog.QueryRequest{
		Contract: "contract-main",
		Query: carelog.QueryMessage{UserDocuments: &carelog.UserDocumentsQuery{
			Owner: "xion1alice", Collection: schemas.CollectionAntenatalLogs,
		}},
	})
	if err != nil || len(resp.Documents) != 1 {
		t.Fatalf("query: %+v %v", resp, err)
	}
}

func TestDocumentExecuteRejections(t *testing.T) {
	uc, _, _ := newDocumentUsecase(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		requester string
		req       carelog.ExecuteRequest
		want      error
	}{
		{"spoofed sender", "xion1bob", setRequest("xion1alice", "xion1alice", schemas.CollectionAntenatalLogs, "e1", validEntry), domain.ErrAuthorizationDenied},
		{"foreign owner", "xion1bob", setRequest("xion1bob", "xion1alice", schemas.CollectionAntenatalLogs, "e1", validEntry), domain.ErrAuthorizationDenied},
		{"schema", "xion1alice", setRequest("xion1alice", "xion1alice", schemas.CollectionAntenatalLogs, "e1", `{"id":"e1"}`), domain.ErrValidation},
		{"not json", "xion1alice", setRequest("xion1alice", "xion1alice", schemas.CollectionLinkage, "x", `nope`), domain.ErrValidation},
		{"unknown collection", "xion1alice", setRequest("xion1alice", "xion1alice", "misc", "x", `{}`), domain.ErrNotFound},
		{"no license", "xion1alice", setRequest("xion1alice", "rs-1", schemas.CollectionHealthRecords, "e1", validEntry), domain.ErrAuthorizationDenied},
		{"profile by non-admin", "xion1alice", setRequest("xion1alice", "xion1alice", schemas.CollectionProfiles, "xion1alice", `{"bech32Address":"xion1alice","name":"A","job_title":"Doctor","facilityName":"F"}`), domain.ErrAuthorizationDenied},
	}

	for _, c := range cases {
		_, err := uc.Execute(ctx, c.requester, c.req)
		if !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}

	req := setRequest("xion1alice", "xion1alice", schemas.CollectionAntenatalLogs, "e1", validEntry)
	req.Contract = "other"
	if _, err := uc.Execute(ctx, "xion1alice", req); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown contract: got %v", err)
	}
}

func TestDocumentExecuteConflict(t *testing.T) {
	uc, _, _ := newDocumentUsecase(t)
	ctx := context.Background()

	first := setRequest("xion1alice", "xion1alice", schemas.CollectionLinkage, "xion1alice", `{"patientAddress":"xion1alice","linkedUUID":"rs-1"}`)
	if _, err := uc.Execute(ctx, "xion1alice", first); err != nil {
		t.Fatalf("first link: %v", err)
	}
	second := setRequest("xion1alice", "xion1alice", schemas.CollectionLinkage, "xion1alice", `{"patientAddress":"xion1alice","linkedUUID":"rs-2"}`)
	if _, err := uc.Execute(ctx, "xion1alice", second); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDocumentHealthRecordWithLicense(t *testing.T) {
	uc, repo, _ := newDocumentUsecase(t)
	ctx := context.Background()
	repo.Set(ctx, carelog.Document{ID: "xion1alice", Owner: "xion1alice", Collection: schemas.CollectionLicenseProofs, Data: "{}"})

	req := setRequest("xion1alice", "rs-1", schemas.CollectionHealthRecords, "e1", validEntry)
	if _, err := uc.Execute(ctx, "xion1alice", req); err != nil {
		t.Fatalf("licensed write rejected: %v", err)
	}
}

func TestDocumentAdminWritesRole(t *testing.T) {
	uc, _, _ := newDocumentUsecase(t)
	req := setRequest("xion1admin", "xion1bob", schemas.CollectionRoles, "xion1bob", `{"role":"healthcare_worker"}`)
	if _, err := uc.Execute(context.Background(), "xion1admin", req); err != nil {
		t.Fatalf("admin write rejected: %v", err)
	}
}

func TestDocumentQueryMissing(t *testing.T) {
	uc, _, _ := newDocumentUsecase(t)
	resp, err := uc.Query(context.Background(), carelog.QueryRequest{
		Contract: "contract-main",
		Query: carelog.QueryMessage{UserDocument: &carelog.UserDocumentQuery{
			Owner: "x", Collection: schemas.CollectionRoles, DocumentID: "x",
		}},
	})
	if err != nil || resp.Document != nil {
		t.Fatalf("missing document should be an empty response: %+v %v", resp, err)
	}

	if _, err := uc.Query(context.Background(), carelog.QueryRequest{Contract: "contract-main"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty query should be rejected, got %v", err)
	}
}
