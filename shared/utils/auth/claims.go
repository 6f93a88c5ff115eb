package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what a client can learn from a token without verifying it
type TokenClaims struct {
	UserID         string `json:"userId,omitempty"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"organizationId"`
	UserType       string `json:"userType"`
}

// DecodeClaims reads the payload segment of a JWT without checking its signature.
// The header and signature segments are not inspected. The payload may be base64url or
// standard base64, padded or not.
// It returns nil for anything malformed or lacking organizationId or userType.
// The result is only fit for UI scoping; authorization must use TokenIssuer.ValidateJWT.
func DecodeClaims(token string) *TokenClaims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil
	}

	raw, err := decodePayload(parts[1])
	if err != nil {
		return nil
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil
	}

	out := &TokenClaims{
		UserID:         claimString(claims, "userId"),
		Email:          claimString(claims, "email"),
		OrganizationID: claimString(claims, "organizationId"),
		UserType:       claimString(claims, "userType"),
	}
	if out.OrganizationID == "" || out.UserType == "" {
		return nil
	}
	return out
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

func decodePayload(seg string) ([]byte, error) {
	if !strings.ContainsAny(seg, "+/") {
		return segmentParser.DecodeSegment(seg)
	}
	if strings.HasSuffix(seg, "=") {
		return base64.StdEncoding.DecodeString(seg)
	}
	return base64.RawStdEncoding.DecodeString(seg)
}

// claimString accepts string and numeric claims; numeric organization ids are common in older tokens
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
