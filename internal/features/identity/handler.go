package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/store"
	jwtutil "github.com/eduverse/tutorhub-server-go/internal/utils/jwt"
	"github.com/eduverse/tutorhub-server-go/pkg/config"
	"github.com/eduverse/tutorhub-server-go/pkg/pagination"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
)

// Handler processes identity and session HTTP requests.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
	cfg    *config.Config
}

// NewHandler constructs an identity handler instance.
func NewHandler(st *store.Store, logger *slog.Logger, cfg *config.Config) *Handler {
	return &Handler{store: st, logger: logger, cfg: cfg}
}

type authPayload struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
	// PollInterval tells clients how often to re-validate the session.
	PollIntervalSeconds int `json:"pollIntervalSeconds"`
}

// Signup registers a new account and stores a verification code. Delivery of
// the code is an external concern; outside production the code is echoed back
// so the simulated mail flow works without an SMTP setup.
func (h *Handler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid signup payload", err)
		return
	}

	if len(req.Password) < 8 {
		response.Error(c, http.StatusBadRequest, ErrWeakPassword.Error(), nil)
		return
	}

	if _, err := FindByEmail(c.Request.Context(), h.store, req.Email); err == nil {
		response.Error(c, http.StatusConflict, "an account with this email already exists", nil)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create account", err)
		return
	}

	acct, err := CreateOrUpdateAccount(c.Request.Context(), h.store, Account{
		Name:             req.Name,
		Email:            req.Email,
		PasswordHash:     hash,
		VerificationCode: NewVerificationCode(),
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create account", err)
		return
	}

	h.logger.Info("account created",
		slog.String("account_id", acct.ID),
		slog.Bool("verified", acct.Verified),
	)

	data := gin.H{"account": acct.Sanitized()}
	if !h.cfg.IsProduction() && !acct.Verified {
		data["verificationCode"] = acct.VerificationCode
	}

	response.Created(c, data, "Account created. Please verify your email.")
}

// VerifyEmail checks the verification code and completes login on success.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid verification payload", err)
		return
	}

	if _, err := VerifyEmail(c.Request.Context(), h.store, req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			response.Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrInvalidCode):
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "verification failed", err)
		}
		return
	}

	h.issueSession(c, req.Email, "Email verified.")
}

// Login authenticates credentials and issues a fresh single-device session.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	_, err := Login(c.Request.Context(), h.store, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			response.Error(c, http.StatusNotFound, ErrAccountNotFound.Error(), nil)
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, ErrInvalidCredentials.Error(), nil)
		case errors.Is(err, ErrNotVerified):
			h.handleUnverifiedLogin(c, req.Email)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "login failed", err)
		}
		return
	}

	h.issueSession(c, req.Email, "Logged in.")
}

// handleUnverifiedLogin re-triggers verification instead of completing login.
func (h *Handler) handleUnverifiedLogin(c *gin.Context, email string) {
	code, err := RegenerateVerificationCode(c.Request.Context(), h.store, email)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to refresh verification code", err)
		return
	}

	h.logger.Info("verification re-triggered for unverified login", slog.String("email", NormalizeEmail(email)))

	data := gin.H{"requiresVerification": true}
	if !h.cfg.IsProduction() {
		data["verificationCode"] = code
	}

	c.JSON(http.StatusForbidden, response.Envelope{
		Success: false,
		Message: "Email not verified. A new verification code has been sent.",
		Data:    data,
	})
}

func (h *Handler) issueSession(c *gin.Context, email, message string) {
	session, err := IssueSession(c.Request.Context(), h.store, email)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to issue session", err)
		return
	}

	token, err := jwtutil.GenerateSessionToken(session.Account.Email, session.DeviceToken, h.cfg.JWTSecret, h.cfg.SessionExpiry)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to sign session token", err)
		return
	}

	response.Success(c, http.StatusOK, authPayload{
		Account:             session.Account,
		Token:               token,
		PollIntervalSeconds: int(h.cfg.SessionPollInterval.Seconds()),
	}, message, nil)
}

// Session returns a fresh account snapshot for the polling client. Reaching
// this handler at all means the session's device token still matches.
func (h *Handler) Session(c *gin.Context) {
	acct, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	response.Success(c, http.StatusOK, acct.Sanitized(), "", nil)
}

// Logout is local-only: the stored device token is left untouched so a
// re-login from the same client validates instantly. The client simply
// discards its token.
func (h *Handler) Logout(c *gin.Context) {
	response.Success(c, http.StatusOK, nil, "Logged out.", nil)
}

// UpdateProfile changes the caller's display name or password.
func (h *Handler) UpdateProfile(c *gin.Context) {
	acct, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid profile payload", err)
		return
	}

	updated, err := UpdateProfile(c.Request.Context(), h.store, acct.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, ErrAccountNotFound):
			response.Error(c, http.StatusNotFound, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update profile", err)
		}
		return
	}

	response.Success(c, http.StatusOK, updated.Sanitized(), "Profile updated.", nil)
}

// List returns paginated accounts for the admin console.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)

	accounts, total, err := ListAccounts(c.Request.Context(), h.store, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list accounts", err)
		return
	}

	response.Success(c, http.StatusOK, accounts, "", pagination.MetadataFrom(total, params))
}

// accountFromContext mirrors middleware.AccountFromContext without importing
// the middleware package (it imports this one).
func accountFromContext(c *gin.Context) (Account, bool) {
	val, exists := c.Get("account")
	if !exists {
		return Account{}, false
	}
	acct, ok := val.(Account)
	return acct, ok
}
