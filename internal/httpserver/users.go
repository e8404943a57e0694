package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
	middleware "github.com/Skotchmaster/echoshop/pkg/middleware/auth"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

type UserHTTP struct {
	Svc          *service.UserService
	Tokens       *tokens.Issuer
	CookieSecure bool
}

func (h *UserHTTP) startSession(c echo.Context, status int, s *service.Session) error {
	middleware.SetSessionCookie(c, s.Token.Token, s.Token.ExpiresAt, h.CookieSecure)
	return c.JSON(status, service.AuthUser(s.User, s.Token.Token))
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_failed", "Invalid request body", err)
	}

	s, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	l.Info("register_success", "user_id", s.User.ID)
	return h.startSession(c, http.StatusCreated, s)
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "Invalid request body", err)
	}

	s, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_success", "user_id", s.User.ID)
	return h.startSession(c, http.StatusOK, s)
}

// Logout always clears the cookie. A valid token presented with the request
// is revoked as well.
func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.logout")

	if raw := middleware.TokenFromRequest(c.Request()); raw != "" {
		claims, err := h.Tokens.Parse(raw)
		if err != nil {
			l.Debug("logout_token_ignored", "reason", "token did not parse", "error", err)
		} else if err := h.Svc.Logout(ctx, claims); err != nil {
			return fail(l, "logout_failed", err)
		}
	}

	middleware.ClearSessionCookie(c, h.CookieSecure)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}

func (h *UserHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_profile")

	who, err := principal(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.GetUser(ctx, who.UserID)
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, service.AuthUser(u, ""))
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	who, err := principal(c)
	if err != nil {
		return err
	}

	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_failed", "Invalid request body", err)
	}

	u, err := h.Svc.UpdateProfile(ctx, who.UserID, req)
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}

	l.Info("update_profile_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, service.AuthUser(u, ""))
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list_users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_user_failed", "Invalid user id", err)
	}
	u, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		return fail(l, "get_user_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_user")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "update_user_failed", "Invalid user id", err)
	}

	var req transport.AdminUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user_failed", "Invalid request body", err)
	}

	u, err := h.Svc.UpdateUser(ctx, id, req)
	if err != nil {
		return fail(l, "update_user_failed", err)
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_user")

	who, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "delete_user_failed", "Invalid user id", err)
	}

	if err := h.Svc.DeleteUser(ctx, who.UserID, id); err != nil {
		return fail(l, "delete_user_failed", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User removed"})
}
