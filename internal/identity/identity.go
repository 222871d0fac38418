// Package identity carries the signed-in operator supplied by the upstream
// identity provider. Authentication itself happens in front of this service.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Identity struct {
	Email string
	Name  string
}

func (i Identity) SignedIn() bool {
	return i.Email != ""
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity on ctx, or the zero Identity when the
// request is anonymous.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// FromHeaders reads the identity an auth proxy forwards in trusted headers.
func FromHeaders(h http.Header, emailHeader, nameHeader string) Identity {
	id := Identity{
		Email: strings.ToLower(strings.TrimSpace(h.Get(emailHeader))),
	}
	if nameHeader != "" {
		id.Name = strings.TrimSpace(h.Get(nameHeader))
	}
	return id
}

// Middleware attaches the forwarded identity to every request context.
func Middleware(emailHeader, nameHeader string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := FromHeaders(c.Request().Header, emailHeader, nameHeader)
			if id.SignedIn() {
				req := c.Request()
				c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			}
			return next(c)
		}
	}
}
