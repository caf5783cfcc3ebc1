package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

type Identity struct {
	UserID uint
	Role   models.Role
}

type identityKey struct{}

type Verifier interface {
	Verify(token string) (*tokens.AccessClaims, error)
}

// Gate checks bearer tokens against a per-route role set.
type Gate struct {
	Tokens Verifier
}

func NewGate(v Verifier) *Gate {
	return &Gate{Tokens: v}
}

// Require returns a pass-through middleware when roles is empty.
func (g *Gate) Require(roles ...models.Role) echo.MiddlewareFunc {
	allowed := slices.Clone(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if len(allowed) == 0 {
			return next
		}
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "auth.gate")

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			claims, err := g.Tokens.Verify(raw)
			if err != nil {
				l.Warn("auth_failed", "status", 403, "reason", "token rejected", "error", err)
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}

			if !slices.Contains(allowed, claims.Role) {
				l.Warn("auth_failed", "status", 403, "reason", "role not allowed", "role", claims.Role, "user_id", claims.ID)
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}

			setIdentity(c, Identity{UserID: claims.ID, Role: claims.Role})
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func setIdentity(c echo.Context, id Identity) {
	c.Set(CtxUserID, id.UserID)
	c.Set(CtxRole, id.Role)

	req := c.Request()
	ctx := context.WithValue(req.Context(), identityKey{}, id)
	ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", id.UserID))
	c.SetRequest(req.WithContext(ctx))
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
