package dto

import "encoding/json"

// StripeEvent carries the billing facts this core consumes. Checkout and
// portal sessions are created elsewhere; only the outcome arrives here.
type StripeEvent struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	CustomerID         string          `json:"customer_id"`
	CustomerEmail      string          `json:"customer_email"`
	SubscriptionID     string          `json:"subscription_id"`
	SubscriptionStatus string          `json:"subscription_status"`
	BillingInterval    string          `json:"billing_interval"`
	Raw                json.RawMessage `json:"data,omitempty"`
}
