package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var ErrAlreadySigned = errors.New("entry already signed")

// ValidationError reports required draft fields that were left empty.
type ValidationError struct {
	Kind   PayloadKind
	Fields []string
}

func (e ValidationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("missing required %s fields: %s", e.Kind, strings.Join(e.Fields, ", "))
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// SigningUnavailableError is not fatal: the entry continues unsigned.
type SigningUnavailableError struct {
	Reason string
}

func (e SigningUnavailableError) Error() string {
	return "signing unavailable: " + e.Reason
}

func (e SigningUnavailableError) Is(target error) bool {
	_, ok := target.(SigningUnavailableError)
	return ok
}

var ErrSigningUnavailable = SigningUnavailableError{}

// RemoteCommitError is the failure left after every commit attempt was spent.
type RemoteCommitError struct {
	Attempts int
	Err      error
}

func (e RemoteCommitError) Error() string {
	return fmt.Sprintf("remote commit failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e RemoteCommitError) Unwrap() error { return e.Err }

func (e RemoteCommitError) Is(target error) bool {
	_, ok := target.(RemoteCommitError)
	return ok
}

var ErrRemoteCommit = RemoteCommitError{}

type RemoteQueryError struct {
	Attempts int
	Err      error
}

func (e RemoteQueryError) Error() string {
	return fmt.Sprintf("remote query failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e RemoteQueryError) Unwrap() error { return e.Err }

func (e RemoteQueryError) Is(target error) bool {
	_, ok := target.(RemoteQueryError)
	return ok
}

var ErrRemoteQuery = RemoteQueryError{}

type AuthorizationDeniedError struct {
	Reason string
	Err    error
}

func (e AuthorizationDeniedError) Error() string {
	if e.Reason == "" {
		return "authorization denied"
	}
	return "authorization denied: " + e.Reason
}

func (e AuthorizationDeniedError) Unwrap() error { return e.Err }

func (e AuthorizationDeniedError) Is(target error) bool {
	_, ok := target.(AuthorizationDeniedError)
	return ok
}

var ErrAuthorizationDenied = AuthorizationDeniedError{}

type ProofFailureKind string

const (
	ProofCancelled      ProofFailureKind = "Cancelled"
	ProofDismissed      ProofFailureKind = "Dismissed"
	ProofSessionExpired ProofFailureKind = "SessionExpired"
	ProofFailed         ProofFailureKind = "Failed"
)

// ProofFlowError carries one of the external verification failure kinds.
type ProofFlowError struct {
	Kind ProofFailureKind
	Err  error
}

func (e ProofFlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proof flow %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("proof flow %s", e.Kind)
}

func (e ProofFlowError) Unwrap() error { return e.Err }

func (e ProofFlowError) Is(target error) bool {
	_, ok := target.(ProofFlowError)
	return ok
}

// UserMessage is the text shown to the actor for the failure kind.
func (e ProofFlowError) UserMessage() string {
	switch e.Kind {
	case ProofCancelled:
		return "Verification was cancelled"
	case ProofDismissed:
		return "Verification was dismissed"
	case ProofSessionExpired:
		return "Verification session expired"
	default:
		return "Verification failed"
	}
}

var ErrProofFlow = ProofFlowError{}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e InvalidTransitionError) Is(target error) bool {
	_, ok := target.(InvalidTransitionError)
	return ok
}

var ErrInvalidTransition = InvalidTransitionError{}

// ConflictError is returned by the document store when a document id is already taken by different data.
type ConflictError struct {
	URI string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("document already exists: %s", e.URI)
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	return ok
}

var ErrConflict = ConflictError{}

// StorageError is a durable store failure other than an absent key.
// The queue keeps serving its in-memory state when it sees one.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

func (e StorageError) Is(target error) bool {
	_, ok := target.(StorageError)
	return ok
}

var ErrStorage = StorageError{}
