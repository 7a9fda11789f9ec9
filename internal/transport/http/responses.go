package httptransport

import "trustd/internal/engine"

// RegisterResponse confirms account creation.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// LoginResponse carries the trust analysis outcome of a login attempt.
// AccessToken is set only for allowed logins; ChallengeID only for challenged
// ones.
type LoginResponse struct {
	Analysis    engine.TrustResult `json:"analysis"`
	AccessToken string             `json:"access_token,omitempty"`
	ChallengeID string             `json:"challenge_id,omitempty"`
}

// MFAVerifyResponse carries the token issued after a successful challenge.
type MFAVerifyResponse struct {
	AccessToken string `json:"access_token"`
}

// TransactionResponse carries the trust analysis of a submitted transaction.
type TransactionResponse struct {
	Analysis engine.TrustResult `json:"analysis"`
}
