package handler

import (
	"context"  // provides context with cancellation for DB calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/middleware" // identity set by BearerAuth
	"github.com/iliyamo/food-journal-api/internal/service"    // account logic
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Accounts *service.AccountService
	Log      *zap.Logger
	Timeout  time.Duration
	// OnProfileChange runs after a successful profile update.  Listings
	// embed the author's username and picture.
	OnProfileChange func(ctx context.Context)
}

func NewAuthHandler(accounts *service.AccountService, log *zap.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Log: log, Timeout: timeout}
}

// ----- DTOs -----

// loginReq accepts the OAuth2 password form as well as JSON.  username may
// hold either the username or the email.
type loginReq struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginResp struct {
	AccessToken    string  `json:"access_token"`
	TokenType      string  `json:"token_type"`
	UserID         uint64  `json:"user_id"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

type profileResp struct {
	ID             uint64  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

func (h *AuthHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

// CreateUser: POST /auth/create_user.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req service.RegisterInput
	if msg, ok := decode(c, &req); !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": msg})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Accounts.Register(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Login: POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if msg, ok := decode(c, &req); !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": msg})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		AccessToken:    res.AccessToken,
		TokenType:      "bearer",
		UserID:         res.UserID,
		Email:          res.Email,
		ProfilePicture: res.ProfilePicture,
	})
}

// UpdateUser: PATCH /auth/update_user (protected).
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.MsgInvalidCredentials})
	}
	var req service.UpdateInput
	if msg, ok := decode(c, &req); !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": msg})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Accounts.UpdateProfile(ctx, uid, req); err != nil {
		return writeError(c, h.Log, err)
	}
	if h.OnProfileChange != nil {
		h.OnProfileChange(ctx)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User was updated"})
}

// GetUser: GET /auth/get_user (protected).
func (h *AuthHandler) GetUser(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.MsgInvalidCredentials})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Accounts.GetProfile(ctx, uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, profileResp{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Username:       p.Username,
		Email:          p.Email,
		ProfilePicture: p.ProfilePicture,
	})
}

// Logout: POST /auth/logout (bearer header only).  The presented token is
// added to the blacklist and refused from then on.  Already revoked or
// expired tokens are accepted and revoked again.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := middleware.AccessToken(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"detail": "Not authenticated"})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Accounts.Logout(ctx, token); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Access token " + token + " added to blacklist"})
}
