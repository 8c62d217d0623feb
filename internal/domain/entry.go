package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/totegamma/carelog/internal/utils"
)

// TimestampLayout matches the ISO-8601 form produced by field devices.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type Status string

const (
	StatusUnsynced             Status = "unsynced"
	StatusPendingOffline       Status = "pending_offline"
	StatusPendingOfflineSigned Status = "pending_offline_signed"
	StatusSyncedOnline         Status = "synced_online"
	StatusSyncedOnlineSigned   Status = "synced_online_signed"
	StatusSyncError            Status = "sync_error"
)

// InitialStatus is the status an entry carries from creation until its first commit attempt.
func InitialStatus(offline, signed bool) Status {
	switch {
	case offline && signed:
		return StatusPendingOfflineSigned
	case offline:
		return StatusPendingOffline
	default:
		return StatusUnsynced
	}
}

func SyncedStatus(signed bool) Status {
	if signed {
		return StatusSyncedOnlineSigned
	}
	return StatusSyncedOnline
}

func (s Status) IsSynced() bool {
	return s == StatusSyncedOnline || s == StatusSyncedOnlineSigned
}

// NeedsSync reports whether a later resync should try to commit the entry.
func (s Status) NeedsSync() bool {
	switch s {
	case StatusUnsynced, StatusPendingOffline, StatusPendingOfflineSigned, StatusSyncError:
		return true
	default:
		return false
	}
}

// CanTransition allows only forward progress. sync_error may be retried toward a synced state.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusUnsynced, StatusPendingOffline, StatusPendingOfflineSigned:
		return to.IsSynced() || to == StatusSyncError
	case StatusSyncError:
		return to.IsSynced() || to == StatusSyncError
	default:
		return false
	}
}

// Entry is one locally authored record. ID, Timestamp, Payload and AuthoredBy never change
// after creation; Signature is write-once; Status only moves forward.
type Entry struct {
	ID          string
	Timestamp   string
	Payload     Payload
	AuthoredBy  string
	Signature   string
	SigningNote string
	Status      Status
	// SignedStatus is the provisional status the signature was computed over.
	SignedStatus Status
	RecordSetID  string
	Digest       string
	LastError    string
}

func (e Entry) Signed() bool {
	return e.Signature != ""
}

// RemoteVisible entries belong to a patient record set rather than the author's own log.
func (e Entry) RemoteVisible() bool {
	return e.RecordSetID != ""
}

func (e Entry) CreatedAt() (time.Time, error) {
	return time.Parse(TimestampLayout, e.Timestamp)
}

// AttachSignature sets the signature once. A second call leaves the original in place.
func (e *Entry) AttachSignature(signature string) error {
	if e.Signature != "" {
		return ErrAlreadySigned
	}
	if signature == "" {
		return fmt.Errorf("empty signature")
	}
	e.Signature = signature
	e.SignedStatus = e.Status
	e.SigningNote = ""
	return nil
}

func (e *Entry) Transition(to Status) error {
	if !e.Status.CanTransition(to) {
		return InvalidTransitionError{From: string(e.Status), To: string(to)}
	}
	e.Status = to
	return nil
}

// MarkSynced moves the entry to the synced variant that matches its signature.
func (e *Entry) MarkSynced() error {
	if err := e.Transition(SyncedStatus(e.Signed())); err != nil {
		return err
	}
	e.LastError = ""
	return nil
}

func (e *Entry) MarkSyncError(cause error) error {
	if err := e.Transition(StatusSyncError); err != nil {
		return err
	}
	if cause != nil {
		e.LastError = cause.Error()
	}
	return nil
}

// CanonicalPayload is the byte string signatures are computed over:
// id, timestamp, payload, authoredBy and status in that order, signature excluded.
func (e Entry) CanonicalPayload() ([]byte, error) {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}

	om := utils.OrderedKVMap[any]{}
	om.Append("id", e.ID).
		Append("timestamp", e.Timestamp).
		Append("payload", json.RawMessage(payload)).
		Append("authoredBy", e.AuthoredBy).
		Append("status", e.Status)

	return om.MarshalJSON()
}

// SignedPayload rebuilds the canonical payload as it was at signing time.
func (e Entry) SignedPayload() ([]byte, error) {
	at := e
	at.Status = e.SignedStatus
	return at.CanonicalPayload()
}

type entryJSON struct {
	ID          string          `json:"id"`
	Timestamp   string          `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
	AuthoredBy  string          `json:"authoredBy"`
	Signature   string          `json:"signature"`
	SigningNote string          `json:"signingNote,omitempty"`
	Status      Status          `json:"status"`
	SignedAt    Status          `json:"signedStatus,omitempty"`
	RecordSetID string          `json:"recordSetId,omitempty"`
	Digest      string          `json:"digest,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Timestamp:   e.Timestamp,
		Payload:     payload,
		AuthoredBy:  e.AuthoredBy,
		Signature:   e.Signature,
		SigningNote: e.SigningNote,
		Status:      e.Status,
		SignedAt:    e.SignedStatus,
		RecordSetID: e.RecordSetID,
		Digest:      e.Digest,
		LastError:   e.LastError,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := unmarshalPayload(raw.Payload)
	if err != nil {
		return err
	}
	*e = Entry{
		ID:           raw.ID,
		Timestamp:    raw.Timestamp,
		Payload:      payload,
		AuthoredBy:   raw.AuthoredBy,
		Signature:    raw.Signature,
		SigningNote:  raw.SigningNote,
		Status:       raw.Status,
		SignedStatus: raw.SignedAt,
		RecordSetID:  raw.RecordSetID,
		Digest:       raw.Digest,
		LastError:    raw.LastError,
	}
	return nil
}

// Draft is what the author submits before id, timestamp and signature exist.
type Draft struct {
	Payload     Payload
	RecordSetID string
}

func (d Draft) Validate() error {
	if d.Payload == nil {
		return ValidationError{Fields: []string{"payload"}}
	}
	if missing := d.Payload.Missing(); len(missing) > 0 {
		return ValidationError{Kind: d.Payload.Kind(), Fields: missing}
	}
	return nil
}

func (d Draft) RemoteVisible() bool {
	return d.RecordSetID != ""
}
