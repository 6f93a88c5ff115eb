package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrms-backend/shared/database/models"
)

// Session is the authenticated caller of one request. It is built once from
// validated claims and never mutated; a new token yields a new Session.
type Session struct {
	userID         uuid.UUID
	email          string
	organizationID uuid.UUID
	userType       string
	expiresAt      time.Time
}

// SessionView is the JSON form of a Session
type SessionView struct {
	UserID         uuid.UUID `json:"userId"`
	Email          string    `json:"email,omitempty"`
	OrganizationID uuid.UUID `json:"organizationId"`
	UserType       string    `json:"userType"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

func NewSession(claims *Claims) (Session, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad userId", ErrInvalidToken)
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad organizationId", ErrInvalidToken)
	}

	s := Session{
		userID:         userID,
		email:          claims.Email,
		organizationID: orgID,
		userType:       claims.UserType,
	}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (s Session) UserID() uuid.UUID { return s.userID }
func (s Session) Email() string { return s.email }
func (s Session) OrganizationID() uuid.UUID { return s.organizationID }
func (s Session) UserType() string { return s.userType }
func (s Session) ExpiresAt() time.Time { return s.expiresAt }

// IsSuperAdmin reports whether the caller may act across organizations
func (s Session) IsSuperAdmin() bool {
	return s.userType == models.UserTypeSuperAdmin
}

func (s Session) View() SessionView {
	return SessionView{
		UserID:         s.userID,
		Email:          s.email,
		OrganizationID: s.organizationID,
		UserType:       s.userType,
		ExpiresAt:      s.expiresAt,
	}
}

type sessionKey struct{}

// WithSession returns a context carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

type tokenKey struct{}

// WithToken returns a context carrying the raw bearer token, for forwarding to other services
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token stored by WithToken
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
