package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/schemas"
)

// Session is the explicit per-login context: the actor identity, the resolved role,
// the actor's gate and linkage. It is created at login and torn down with Close.
type Session struct {
	mu       sync.RWMutex
	identity string
	role     domain.Role
	gate     *Gate
	linkage  *domain.Linkage
	closed   bool
}

// NewSession opens a session for identity. An empty identity is an anonymous device
// session that can only author unsigned local entries.
func NewSession(identity string, gate *Gate) *Session {
	return &Session{
		identity: identity,
		role:     domain.RoleUnknown,
		gate:     gate,
	}
}

func (s *Session) Identity() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ""
	}
	return s.identity
}

func (s *Session) Role() domain.Role {
	if s == nil {
		return domain.RoleUnknown
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Gate() *Gate {
	if s == nil {
		return nil
	}
	return s.gate
}

func (s *Session) Linkage() *domain.Linkage {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.linkage == nil {
		return nil
	}
	l := *s.linkage
	return &l
}

func (s *Session) setLinkage(l *domain.Linkage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkage = l
}

// ResolveRole looks up roles/<identity>. A missing document means patient; a failed
// query leaves the role unknown and returns the domain.RemoteQueryError.
func (s *Session) ResolveRole(ctx context.Context, remote *SubmissionClient) (domain.Role, error) {
	identity := s.Identity()
	if identity == "" {
		return domain.RoleUnknown, domain.AuthorizationDeniedError{Reason: "no signed-in identity"}
	}

	doc, err := remote.QueryOne(ctx, identity, schemas.CollectionRoles, identity)
	if err != nil {
		slog.WarnContext(
			ctx, "role lookup failed",
			slog.String("module", "session"),
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
		s.setRole(domain.RoleUnknown)
		return domain.RoleUnknown, err
	}

	role := domain.RolePatient
	var rd domain.RoleDocument
	if err := decodeDocument(doc, &rd); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.setRole(domain.RoleUnknown)
			return domain.RoleUnknown, domain.RemoteQueryError{Attempts: 1, Err: err}
		}
	} else if rd.Role != "" {
		role = rd.Role
	}

	s.setRole(role)
	return role, nil
}

func (s *Session) setRole(r domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = r
}

// Close tears the session down. Nothing derived from it survives.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.identity = ""
	s.role = domain.RoleUnknown
	s.linkage = nil
	if s.gate != nil {
		s.gate.Reset()
	}
}
