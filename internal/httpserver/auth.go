package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/middleware/auth"
	"github.com/Skotchmaster/shop_admin/internal/respond"
	"github.com/Skotchmaster/shop_admin/internal/service"
	"github.com/Skotchmaster/shop_admin/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(l, "register", "Invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(l, "register", validationMessage(err), err)
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return mapError(l, "register", err, "User not found")
	}

	l.Info("register_success", "user_id", user.ID)
	return respond.Success(c, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(l, "login", "Invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(l, "login", validationMessage(err), err)
	}

	token, user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return mapError(l, "login", err, "User not found")
	}

	l.Info("login_success", "user_id", user.ID)
	return respond.Success(c, http.StatusOK, "Login successful", transport.LoginResponse{Token: token})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return mapError(l, "me", err, "User not found")
	}
	return respond.Success(c, http.StatusOK, "", user)
}
