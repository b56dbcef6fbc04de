package dto

type ProvisionUserRequest struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	PasswordHash         string `json:"password_hash"`
	Name                 string `json:"name,omitempty"`
	CentralStatus        string `json:"central_status"`
	Entitled             bool   `json:"entitled"`
	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`
}

type ProvisionUserResponse struct {
	Success            bool   `json:"success"`
	UserID             string `json:"user_id"`
	Provisioned        bool   `json:"provisioned"`
	Updated            bool   `json:"updated"`
	AuthAccountCreated bool   `json:"auth_account_created"`
	AuthAccountUpdated bool   `json:"auth_account_updated"`
}

type UpdatePasswordRequest struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type UpdatePasswordResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type SyncPasswordRequest struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	SourceApp    string `json:"source_app"`
}
