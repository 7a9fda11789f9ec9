// Package httptransport is the thin HTTP layer over the trust engine and the
// auth service. Handlers decode, validate, delegate, and encode; scoring and
// decision logic stays in the engine.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"trustd/internal/auth"
	"trustd/internal/auth/mfa"
	"trustd/internal/engine"
	"trustd/internal/engine/ports"
	"trustd/internal/platform/middleware"
	jsonResponse "trustd/internal/transport/http/json"
	dErrors "trustd/pkg/domain-errors"
	httpErrors "trustd/pkg/http-errors"
)

// Analyzer is the engine surface the handlers consume.
type Analyzer interface {
	Analyze(ctx context.Context, ac engine.ActivityContext) engine.TrustResult
	TrustSummary(ctx context.Context, userID string, now time.Time) (*engine.TrustSummary, error)
}

// Authenticator verifies credentials and registers accounts.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (*auth.User, error)
	Authenticate(ctx context.Context, username, password string) (*auth.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueAccessToken(user auth.User, now time.Time) (string, error)
}

// ChallengeStore issues and redeems MFA challenges.
type ChallengeStore interface {
	Issue(ctx context.Context, userID string, now time.Time) (mfa.Challenge, error)
	Redeem(ctx context.Context, challengeID, code string, now time.Time) (string, error)
}

// UserDirectory looks up users by ID for post-challenge token issuance.
type UserDirectory interface {
	ByID(ctx context.Context, id string) (*auth.User, error)
}

// Handler holds the handler dependencies.
type Handler struct {
	analyzer   Analyzer
	authn      Authenticator
	tokens     TokenIssuer
	challenges ChallengeStore
	users      UserDirectory
	recorder   ports.ActivityRecorder
	locator    ports.Locator
	logger     *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	analyzer Analyzer,
	authn Authenticator,
	tokens TokenIssuer,
	challenges ChallengeStore,
	users UserDirectory,
	recorder ports.ActivityRecorder,
	locator ports.Locator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		analyzer:   analyzer,
		authn:      authn,
		tokens:     tokens,
		challenges: challenges,
		users:      users,
		recorder:   recorder,
		locator:    locator,
		logger:     logger,
	}
}

// handleRegister implements POST /auth/register.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authn.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"username", req.Username,
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		writeError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusCreated, RegisterResponse{
		UserID:   user.ID,
		Username: user.Username,
	})
}

// handleLogin implements POST /auth/login. Valid credentials always get a
// trust analysis; the decision controls whether a token, an MFA challenge,
// or neither comes back.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authn.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	ac := engine.ActivityContext{
		UserID:    user.ID,
		Action:    engine.ActionLogin,
		Timestamp: now,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	result := h.analyzer.Analyze(ctx, ac)
	h.recordActivity(ctx, ac)

	resp := LoginResponse{Analysis: result}
	switch result.Decision {
	case engine.DecisionAllow:
		token, err := h.tokens.IssueAccessToken(*user, now)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to issue access token",
				"user_id", user.ID,
				"error", err,
			)
			writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue token"))
			return
		}
		resp.AccessToken = token

	case engine.DecisionChallenge:
		challenge, err := h.challenges.Issue(ctx, user.ID, now)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to issue mfa challenge",
				"user_id", user.ID,
				"error", err,
			)
			writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue challenge"))
			return
		}
		resp.ChallengeID = challenge.ID
		// The code would go out through an MFA delivery channel; it is never
		// part of the login response.
		h.logger.InfoContext(ctx, "mfa challenge issued",
			"user_id", user.ID,
			"challenge_id", challenge.ID,
		)
	}

	jsonResponse.WriteJSON(w, http.StatusOK, resp)
}

// handleMFAVerify implements POST /auth/mfa/verify.
func (h *Handler) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	var req MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	userID, err := h.challenges.Redeem(ctx, req.ChallengeID, req.Code, now)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.ByID(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.IssueAccessToken(*user, now)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue access token",
			"user_id", userID,
			"error", err,
		)
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue token"))
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, MFAVerifyResponse{AccessToken: token})
}

// handleAnalyzeTransaction implements POST /transactions/analyze. Requires a
// valid bearer token.
func (h *Handler) handleAnalyzeTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	ac := engine.ActivityContext{
		UserID:    middleware.UserID(ctx),
		Action:    engine.ActionTransaction,
		Timestamp: now,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Transaction: &engine.TransactionDetails{
			Amount:   req.Amount,
			Merchant: req.Merchant,
			Type:     req.Type,
		},
	}
	result := h.analyzer.Analyze(ctx, ac)
	h.recordActivity(ctx, ac)

	jsonResponse.WriteJSON(w, http.StatusOK, TransactionResponse{Analysis: result})
}

// handleTrustSummary implements GET /me/trust-score. Requires a valid bearer
// token.
func (h *Handler) handleTrustSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.analyzer.TrustSummary(ctx, middleware.UserID(ctx), time.Now().UTC())
	if err != nil {
		h.logger.ErrorContext(ctx, "trust summary failed",
			"user_id", middleware.UserID(ctx),
			"error", err,
		)
		writeError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, summary)
}

// recordActivity appends the observation behind the analysis so future
// analyses see it as history. Best-effort: a recording failure never changes
// the response already decided.
func (h *Handler) recordActivity(ctx context.Context, ac engine.ActivityContext) {
	var location *ports.Location
	if ac.IPAddress != "" {
		loc, err := h.locator.Resolve(ctx, ac.IPAddress)
		if err == nil {
			location = &loc
		}
	}

	if err := h.recorder.RecordActivity(ctx, ac.UserID, ac.Observation(location)); err != nil {
		h.logger.WarnContext(ctx, "failed to record activity",
			"user_id", ac.UserID,
			"error", err,
		)
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeError centralizes domain error translation to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	status, code := httpErrors.StatusFor(err)
	response := map[string]string{"error": string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		response["error_description"] = de.Message
	}
	jsonResponse.WriteJSON(w, status, response)
}
