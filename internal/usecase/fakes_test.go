package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

type mockStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet error
	failPut error
	puts    int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.puts++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// mockGateway is an in-memory remote store with Set idempotence.
type mockGateway struct {
	mu           sync.Mutex
	docs         map[string]carelog.Document
	receipts     map[string]carelog.Receipt
	failExecute  int
	failQuery    int
	executeCalls int
	queryCalls   int

	// holdNext, when set, parks the next Execute until it is closed. held is
	// signalled once that call is parked.
	holdNext chan struct{}
	held     chan struct{}
}

// holdNextExecute parks the next Execute and returns the channels to observe and release it.
func (m *mockGateway) holdNextExecute() (held <-chan struct{}, release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdNext = make(chan struct{})
	m.held = make(chan struct{}, 1)
	hold := m.holdNext
	return m.held, func() { close(hold) }
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		docs:     make(map[string]carelog.Document),
		receipts: make(map[string]carelog.Receipt),
	}
}

func (m *mockGateway) Execute(ctx context.Context, sender string, contract string, msg carelog.ExecuteMessage, fee string, memo *string) (carelog.Receipt, error) {
	m.mu.Lock()
	hold, held := m.holdNext, m.held
	m.holdNext = nil
	m.mu.Unlock()
	if hold != nil {
		held <- struct{}{}
		<-hold
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeCalls++
	if m.failExecute != 0 {
		if m.failExecute > 0 {
			m.failExecute--
		}
		return carelog.Receipt{}, errors.New("execute unavailable")
	}
	set := msg.Set
	uri := carelog.ComposeDocumentURI(set.Owner, set.Collection, set.DocumentID)
	if existing, ok := m.docs[uri]; ok {
		if existing.Data != set.Data {
			return carelog.Receipt{}, domain.ConflictError{URI: uri}
		}
		return m.receipts[uri], nil
	}
	m.docs[uri] = carelog.Document{
		ID:         set.DocumentID,
		Owner:      set.Owner,
		Collection: set.Collection,
		Data:       set.Data,
		Sender:     sender,
		CreatedAt:  time.Now(),
	}
	receipt := carelog.Receipt{
		TransactionHash: hex.EncodeToString(carelog.GetHash([]byte(uri))),
		Contract:        contract,
		Owner:           set.Owner,
		Collection:      set.Collection,
		DocumentID:      set.DocumentID,
	}
	m.receipts[uri] = receipt
	return receipt, nil
}

func (m *mockGateway) QueryContractSmart(ctx context.Context, contract string, query carelog.QueryMessage) (carelog.QueryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.failQuery != 0 {
		if m.failQuery > 0 {
			m.failQuery--
		}
		return carelog.QueryResponse{}, errors.New("query unavailable")
	}
	if q := query.UserDocument; q != nil {
		doc, ok := m.docs[carelog.ComposeDocumentURI(q.Owner, q.Collection, q.DocumentID)]
		if !ok {
			return carelog.QueryResponse{}, nil
		}
		return carelog.QueryResponse{Document: &doc}, nil
	}
	q := query.UserDocuments
	var docs []carelog.Document
	for _, d := range m.docs {
		if d.Owner == q.Owner && d.Collection == q.Collection {
			docs = append(docs, d)
		}
	}
	return carelog.QueryResponse{Documents: docs}, nil
}

func (m *mockGateway) put(owner, collection, documentID, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[carelog.ComposeDocumentURI(owner, collection, documentID)] = carelog.Document{
		ID: documentID, Owner: owner, Collection: collection, Data: data,
	}
}

func (m *mockGateway) count(owner, collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.docs {
		if d.Owner == owner && d.Collection == collection {
			n++
		}
	}
	return n
}

type keySigner struct {
	priv    string
	address string
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	priv := hex.EncodeToString(crypto.FromECDSA(key))
	addr, err := carelog.PrivKeyToAddr(priv, carelog.AddressPrefix)
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	return &keySigner{priv: priv, address: addr}
}

func (s *keySigner) Sign(ctx context.Context, identity string, message []byte) (string, error) {
	if identity != s.address {
		return "", errors.New("unknown identity")
	}
	sig, err := carelog.SignBytes(message, s.priv)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

type mockProofSource struct {
	results []error
	calls   int
}

func (m *mockProofSource) Verify(ctx context.Context, providerID string) (domain.VerificationResult, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.results) && m.results[idx] != nil {
		return domain.VerificationResult{}, m.results[idx]
	}
	return domain.VerificationResult{Proofs: []domain.Proof{{
		ClaimData: domain.ClaimData{
			Provider:   providerID,
			Parameters: "{}",
			Context:    "{}",
			Identifier: "0xclaim",
			Owner:      "0xowner",
			Epoch:      1,
			TimestampS: 1700000000,
		},
		Signatures: []string{"0xsig"},
	}}}, nil
}

type mockProbe struct {
	online bool
}

func (m *mockProbe) Reachable(ctx context.Context) bool { return m.online }

func noSleep(time.Duration) {}

func testRetrier() *Retrier {
	return NewRetrier(3, time.Second).WithSleeper(noSleep)
}

var testProviders = map[domain.RoleClaim]string{
	domain.ClaimDoctor:       "provider-doctor",
	domain.ClaimNurseMidwife: "provider-midwife",
}

const profileJSON = `{"id":"hw-1","bech32Address":"%s","name":"Efua","job_title":"Midwife","facilityName":"Korle Bu"}`

type harness struct {
	store   *mockStore
	gateway *mockGateway
	signer  *keySigner
	monitor *ConnectivityMonitor
	gate    *Gate
	remote  *SubmissionClient
	orch    *SyncOrchestrator
	session *Session
}

func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	h := &harness{
		store:   newMockStore(),
		gateway: newMockGateway(),
		signer:  newKeySigner(t),
	}
	h.remote = NewSubmissionClient(h.gateway, testRetrier(), "contract-main")
	proofs := NewSubmissionClient(h.gateway, testRetrier(), "contract-proof")
	h.gate = NewGate(h.remote, proofs, &mockProofSource{}, testProviders)
	h.monitor = NewConnectivityMonitor(&mockProbe{online: online}, 0)
	h.monitor.Set(online)
	h.orch = NewSyncOrchestrator(NewQueue(h.store), h.monitor, NewSigningAdapter(h.signer), h.remote, 10*time.Millisecond)
	h.session = NewSession(h.signer.address, h.gate)
	return h
}

func (h *harness) addProfile(verified bool) {
	addr := h.signer.address
	h.gateway.put(addr, schemas.CollectionProfiles, addr, fmt.Sprintf(profileJSON, addr))
	if verified {
		h.gateway.put(addr, schemas.CollectionLicenseProofs, addr, `{"claimInfo":{"provider":"p"},"signedClaim":{"claim":{"identifier":"i","owner":"o"},"signatures":["s"]}}`)
	}
}
