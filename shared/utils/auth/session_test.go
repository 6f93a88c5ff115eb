package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	userID, orgID := uuid.New(), uuid.New()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	s, err := NewSession(&Claims{
		UserID:           userID.String(),
		OrganizationID:   orgID.String(),
		UserType:         "SuperAdmin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	})
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID())
	assert.Equal(t, orgID, s.OrganizationID())
	assert.True(t, s.IsSuperAdmin())
	assert.True(t, exp.Equal(s.ExpiresAt()))

	ctx := WithSession(context.Background(), s)
	got, ok := SessionFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok = SessionFrom(context.Background())
	assert.False(t, ok)
}

func TestNewSessionRejectsBadIDs(t *testing.T) {
	_, err := NewSession(&Claims{UserID: "42", OrganizationID: uuid.NewString(), UserType: "EMPLOYEE"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSession(&Claims{UserID: uuid.NewString(), OrganizationID: "7", UserType: "EMPLOYEE"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
