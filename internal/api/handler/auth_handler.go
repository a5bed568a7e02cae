package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/effects"
	"github.com/99minutos/console-auth/internal/core/ports"
)

const defaultAwaitTimeout = 30 * time.Second

// ActionStore is the part of the store the handlers drive.
type ActionStore interface {
	Await(ctx context.Context, action domain.Action, until ...domain.ActionType) (domain.Action, error)
	State() domain.AuthState
}

// ViewTracker reports the view the client is on.
type ViewTracker interface {
	Current() string
}

// AuthHandler turns agent requests into store actions, the way the login and
// register forms would.
type AuthHandler struct {
	store        ActionStore
	authService  ports.AuthService
	views        ViewTracker
	awaitTimeout time.Duration
}

func NewAuthHandler(store ActionStore, authService ports.AuthService, views ViewTracker, awaitTimeout time.Duration) *AuthHandler {
	if awaitTimeout <= 0 {
		awaitTimeout = defaultAwaitTimeout
	}
	return &AuthHandler{store: store, authService: authService, views: views, awaitTimeout: awaitTimeout}
}

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	Password  string `json:"password"   validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type authResponse struct {
	User  *domain.User `json:"user,omitempty"`
	Route string       `json:"route,omitempty"`
}

type stateResponse struct {
	State domain.AuthState `json:"state"`
	Route string           `json:"route"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	got, err := h.await(c, domain.Register(req.Email, req.FirstName, req.Password),
		domain.ActionRegisterSuccess, domain.ActionRegisterFailure)
	if err != nil {
		return err
	}
	if got.Err != nil {
		return got.Err
	}
	return c.JSON(http.StatusCreated, authResponse{User: got.User, Route: domain.RouteLogin})
}

// Login signs in with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	got, err := h.await(c, domain.Login(req.Email, req.Password),
		domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if err != nil {
		return err
	}
	return h.loginResult(c, got)
}

// SocialSignIn runs the identity-provider flow for :provider.
//
// @Summary      Sign in with an identity provider
// @Tags         auth
// @Produce      json
// @Param        provider  path      string  true  "google or facebook"
// @Success      200       {object}  authResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      501       {object}  map[string]string
// @Router       /auth/social/{provider} [post]
func (h *AuthHandler) SocialSignIn(c echo.Context) error {
	var action domain.Action
	switch c.Param("provider") {
	case ports.ProviderGoogle:
		action = domain.SignInWithGoogle()
	case ports.ProviderFacebook:
		action = domain.SignInWithFacebook()
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "provider must be one of: google facebook")
	}

	// The consent page waits on a person, so only the request context bounds it.
	got, err := h.store.Await(c.Request().Context(), action, domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if err != nil {
		return err
	}
	return h.loginResult(c, got)
}

// Logout ends the session.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := h.await(c, domain.Logout(), domain.ActionLogoutSuccess); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword asks the backend to send a reset email and relays its reply.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Account email"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	raw, err := h.authService.ResetPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// State reports the reducer state and the current view.
//
// @Summary      Authentication state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  stateResponse
// @Router       /auth/state [get]
func (h *AuthHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, stateResponse{State: h.store.State(), Route: h.views.Current()})
}

func (h *AuthHandler) await(c echo.Context, action domain.Action, until ...domain.ActionType) (domain.Action, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.awaitTimeout)
	defer cancel()
	return h.store.Await(ctx, action, until...)
}

func (h *AuthHandler) loginResult(c echo.Context, got domain.Action) error {
	if got.Err != nil {
		return got.Err
	}
	return c.JSON(http.StatusOK, authResponse{User: got.User, Route: effects.RouteFor(got.User)})
}
