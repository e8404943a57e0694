package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/pkg/logging"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

const (
	CookieName = "jwt"

	tokenContextKey = "session_token"
	userIDKey       = "user_id"
	isAdminKey      = "is_admin"
	claimsKey       = "session_claims"
)

// Store backs the per-request session checks: logged out token ids and the
// current role of the token's user.
type Store interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	UserRole(ctx context.Context, id uuid.UUID) (exists, isAdmin bool, err error)
}

type SessionAuth struct {
	Store Store
	jwt   echo.MiddlewareFunc
}

// NewSessionAuth accepts HS256 tokens from the Authorization bearer header or
// the jwt cookie.
func NewSessionAuth(secret []byte, store Store) *SessionAuth {
	return &SessionAuth{
		Store: store,
		jwt: echojwt.WithConfig(echojwt.Config{
			SigningKey:    secret,
			SigningMethod: "HS256",
			ContextKey:    tokenContextKey,
			TokenLookup:   "header:Authorization:Bearer ,cookie:" + CookieName,
			NewClaimsFunc: func(c echo.Context) jwt.Claims { return new(tokens.SessionClaims) },
			ErrorHandler: func(c echo.Context, err error) error {
				logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "missing or invalid token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			},
		}),
	}
}

type ValidatorFunc func(claims *tokens.SessionClaims) error

func (m *SessionAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.jwt(m.session(next, nil))
}

func (m *SessionAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.jwt(m.session(next, func(claims *tokens.SessionClaims) error {
		if !claims.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Not authorized as an admin")
		}
		return nil
	}))
}

func (m *SessionAuth) session(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tkn, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}
		claims, ok := tkn.Claims.(*tokens.SessionClaims)
		if !ok || claims.ID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}

		if m.Store != nil {
			ctx := c.Request().Context()
			revoked, err := m.Store.IsRevoked(ctx, claims.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
			}
			if revoked {
				ClearSessionCookie(c, false)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token revoked")
			}

			// Role changes and deletions apply to tokens already issued.
			exists, isAdmin, err := m.Store.UserRole(ctx, userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
			}
			if !exists {
				logging.FromContext(ctx).Warn("auth_failed", "status", 401, "reason", "user not found", "user_id", userID.String())
				ClearSessionCookie(c, false)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, user not found")
			}
			claims.IsAdmin = isAdmin
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				return err
			}
		}

		setUserContext(c, userID, claims)
		return next(c)
	}
}

func setUserContext(c echo.Context, userID uuid.UUID, claims *tokens.SessionClaims) {
	c.Set(userIDKey, userID)
	c.Set(isAdminKey, claims.IsAdmin)
	c.Set(claimsKey, claims)
}

// UserID returns the id put in the context by RequireAuth or RequireAdmin.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDKey).(uuid.UUID)
	return id, ok
}

func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(isAdminKey).(bool)
	return v
}

func Claims(c echo.Context) *tokens.SessionClaims {
	claims, _ := c.Get(claimsKey).(*tokens.SessionClaims)
	return claims
}

func SetSessionCookie(c echo.Context, token string, expires time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest returns the raw session token the way RequireAuth finds
// it, bearer header first.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := r.Cookie(CookieName); err == nil {
		return ck.Value
	}
	return ""
}
