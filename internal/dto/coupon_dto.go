package dto

type RedeemCouponRequest struct {
	Code  string `json:"code"`
	Email string `json:"email,omitempty"`
}

type ValidateCouponRequest struct {
	Code string `json:"code"`
}
