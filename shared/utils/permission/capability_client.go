package permission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrms-backend/shared/utils/auth"
)

// CapabilityCheck is one module/action pair
type CapabilityCheck struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// CheckRequest is the body of POST /api/access/check
type CheckRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Module string     `json:"module" binding:"required"`
	Action string     `json:"action" binding:"required"`
}

type CheckResponse struct {
	Allowed bool   `json:"allowed"`
	Module  string `json:"module"`
	Action  string `json:"action"`
}

// BatchCheckRequest is the body of POST /api/access/batch-check
type BatchCheckRequest struct {
	UserID *uuid.UUID        `json:"user_id,omitempty"`
	Checks []CapabilityCheck `json:"checks" binding:"required,min=1,max=50,dive"`
}

// BatchCheckResponse maps "module:action" to the decision
type BatchCheckResponse struct {
	Results map[string]bool `json:"results"`
}

// ResultKey is the key of one check in BatchCheckResponse
func ResultKey(module, action string) string {
	return module + ":" + strings.ToLower(action)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// CapabilityClient asks the rbac-service whether a user may act on a module.
// The bearer token found in the request context is forwarded.
type CapabilityClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCapabilityClient(baseURL string) *CapabilityClient {
	return &CapabilityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// HasCapability checks one action for userID
func (cc *CapabilityClient) HasCapability(ctx context.Context, userID uuid.UUID, moduleKey, action string) (bool, error) {
	var result CheckResponse
	err := cc.post(ctx, "/api/access/check", CheckRequest{
		UserID: &userID,
		Module: moduleKey,
		Action: action,
	}, &result)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// BatchCheck checks several actions for userID in one round trip
func (cc *CapabilityClient) BatchCheck(ctx context.Context, userID uuid.UUID, checks []CapabilityCheck) (map[string]bool, error) {
	var result BatchCheckResponse
	err := cc.post(ctx, "/api/access/batch-check", BatchCheckRequest{
		UserID: &userID,
		Checks: checks,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (cc *CapabilityClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := auth.TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := cc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rbac service returned status: %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
