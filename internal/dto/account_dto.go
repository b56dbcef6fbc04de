package dto

type CreateCentralUserRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Name         string   `json:"name,omitempty"`
	SelectedApps []string `json:"selected_apps,omitempty"`
	CouponCode   string   `json:"coupon_code,omitempty"`
}

type CreateCentralUserResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
	AppCount  int    `json:"app_count"`
}
