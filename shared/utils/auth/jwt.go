package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hrms-backend/shared/config"
)

// Claims is the signed payload of an access token. JSON names match what the web client decodes.
type Claims struct {
	UserID         string `json:"userId"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"organizationId"`
	UserType       string `json:"userType"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer signs and validates HS256 access tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(secret string, ttl time.Duration, issuer string) *TokenIssuer {
	if secret == "" {
		secret = "fallback-secret-key-for-development"
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// NewTokenIssuerFromConfig reads the secret, lifetime and issuer from cfg
func NewTokenIssuerFromConfig(cfg *config.Config) *TokenIssuer {
	return NewTokenIssuer(cfg.JWTSecret, cfg.GetJWTExpiry(), cfg.JWTIssuer)
}

// GenerateJWT issues a token for one user of one organization
func (t *TokenIssuer) GenerateJWT(userID uuid.UUID, email string, organizationID uuid.UUID, userType string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         userID.String(),
		Email:          email,
		OrganizationID: organizationID.String(),
		UserType:       userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateJWT checks signature, expiry and issuer and returns the claims
func (t *TokenIssuer) ValidateJWT(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.OrganizationID == "" || claims.UserType == "" {
		return nil, fmt.Errorf("%w: organizationId and userType are required", ErrInvalidToken)
	}
	return claims, nil
}
