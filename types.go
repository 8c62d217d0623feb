package carelog

import (
	"time"
)

const (
	FeeAuto string = "auto"
)

// endpoint names advertised in /.well-known/carelog
const (
	EndpointExecute  = "net.carelog.execute"
	EndpointQuery    = "net.carelog.query"
	EndpointHealth   = "net.carelog.health"
	EndpointRealtime = "net.carelog.realtime"
)

// SetDocument writes one document into an owner's collection.
type SetDocument struct {
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
	Data       string `json:"data"`
}

type ExecuteMessage struct {
	Set *SetDocument `json:"Set,omitempty"`
}

type ExecuteRequest struct {
	Contract string         `json:"contract"`
	Sender   string         `json:"sender"`
	Message  ExecuteMessage `json:"message"`
	Fee      string         `json:"fee"`
	Memo     *string        `json:"memo,omitempty"`
}

// Receipt is returned by the store for every accepted Set.
// Replaying an identical Set returns the receipt of the first one.
type Receipt struct {
	TransactionHash string    `json:"transactionHash"`
	Contract        string    `json:"contract"`
	Owner           string    `json:"owner"`
	Collection      string    `json:"collection"`
	DocumentID      string    `json:"document_id"`
	CommittedAt     time.Time `json:"committedAt"`
}

type UserDocumentQuery struct {
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
}

type UserDocumentsQuery struct {
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
}

type QueryMessage struct {
	UserDocument  *UserDocumentQuery  `json:"UserDocument,omitempty"`
	UserDocuments *UserDocumentsQuery `json:"UserDocuments,omitempty"`
}

type QueryRequest struct {
	Contract string       `json:"contract"`
	Query    QueryMessage `json:"query"`
}

type Document struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Collection string    `json:"collection"`
	Data       string    `json:"data"`
	Sender     string    `json:"sender"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QueryResponse carries Document for UserDocument queries and Documents for UserDocuments.
type QueryResponse struct {
	Document  *Document  `json:"document,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}

// Event is published whenever a new document is accepted by the store.
type Event struct {
	URI       string    `json:"uri"`
	Contract  string    `json:"contract"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type WellKnown struct {
	Version   string            `json:"version"`
	Contract  string            `json:"contract"`
	Endpoints map[string]string `json:"endpoints"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
