package middleware

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"campus/internal/model"
	"campus/internal/service"
)

// PrincipalKey is the echo context key holding the authenticated *service.Principal.
const PrincipalKey = "principal"

type principalCtxKey struct{}

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// SessionAuth returns middleware that admits a request only when its bearer token has a valid
// signature and a live session. Every rejection gets the same 401 body.
func SessionAuth(gate Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  PrincipalKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return gate.Authenticate(c.Request().Context(), token)
		},
		SuccessHandler: func(c echo.Context) {
			if p, ok := c.Get(PrincipalKey).(*service.Principal); ok {
				c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var failure *service.AuthFailure
			if !errors.As(err, &failure) {
				// header missing or malformed; let the gate record it as a missing token
				_, _ = gate.Authenticate(c.Request().Context(), "")
			}
			return Unauthorized()
		},
	})
}

// RequireRole rejects principals whose role is not listed with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return Unauthorized()
			}
			for _, r := range roles {
				if p.Role() == r {
					return next(c)
				}
			}
			return Forbidden()
		}
	}
}

// Unauthorized is the only response an authentication failure produces.
func Unauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// Forbidden is returned when an authenticated caller lacks the required role.
func Forbidden() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusForbidden, "forbidden")
}

// PrincipalFrom returns the principal attached by SessionAuth.
func PrincipalFrom(c echo.Context) (*service.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(*service.Principal)
	return p, ok && p != nil
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*service.Principal)
	return p, ok && p != nil
}
