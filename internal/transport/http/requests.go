package httptransport

import (
	dErrors "trustd/pkg/domain-errors"
)

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

// LoginRequest authenticates a user and triggers a login trust analysis.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	return nil
}

// MFAVerifyRequest redeems a challenge issued by a challenged login.
type MFAVerifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

func (r *MFAVerifyRequest) Validate() error {
	if r.ChallengeID == "" || r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "challenge_id and code are required")
	}
	return nil
}

// TransactionRequest submits a transaction for trust analysis.
type TransactionRequest struct {
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Type     string  `json:"transaction_type"`
}

func (r *TransactionRequest) Validate() error {
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	return nil
}
