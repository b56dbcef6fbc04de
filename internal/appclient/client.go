// Package appclient talks to the internal sync endpoints of sibling apps.
// Every call carries the target app's sync key and runs under the caller's
// context; the fan-out layer supplies the per-target timeout.
package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
)

type Client struct {
	registry *tenant.Registry
	http     *http.Client
}

func New(registry *tenant.Registry) *Client {
	return &Client{
		registry: registry,
		http:     &http.Client{},
	}
}

type credentialUpdate struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// ProvisionPush mirrors the provisioning gateway's input for remote pushes.
type ProvisionPush struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	PasswordHash         string `json:"password_hash"`
	Name                 string `json:"name"`
	CentralStatus        string `json:"central_status"`
	Entitled             bool   `json:"entitled"`
	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`
}

// UpdatePassword pushes a new password hash into one app's credential store.
func (c *Client) UpdatePassword(ctx context.Context, appID, email, passwordHash string) error {
	return c.post(ctx, appID, "/api/admin/updatePassword", credentialUpdate{
		Email:        email,
		PasswordHash: passwordHash,
	})
}

// Provision pushes a full account snapshot into one app's store.
func (c *Client) Provision(ctx context.Context, appID string, push ProvisionPush) error {
	return c.post(ctx, appID, "/api/admin/provisionUser", push)
}

func (c *Client) post(ctx context.Context, appID, path string, payload interface{}) error {
	baseURL := c.registry.BaseURL(appID)
	if baseURL == "" {
		return fmt.Errorf("no base url configured for app %s", appID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-ID", appID)
	req.Header.Set("X-Sync-Key", c.registry.SyncKey(appID))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", appID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("app %s returned %d: %s", appID, resp.StatusCode, string(snippet))
	}
	return nil
}
