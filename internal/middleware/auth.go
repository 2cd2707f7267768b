// Package middleware holds the echo middleware shared by every route group.
package middleware

import (
	"fmt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"jobportal/internal/auth"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

const (
	actorContextKey  = "actor"
	claimsContextKey = "claims"
)

// Authenticator verifies bearer tokens and loads the acting user.
type Authenticator struct {
	jwt    *auth.JWTService
	tokens auth.TokenStoreInterface
	users  repository.UserRepository
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(jwtService *auth.JWTService, tokens auth.TokenStoreInterface, users repository.UserRepository) *Authenticator {
	return &Authenticator{jwt: jwtService, tokens: tokens, users: users}
}

// Authenticate rejects requests without a valid, unrevoked token for an
// active user. The token is read from the Authorization header, or from the
// token query parameter for websocket upgrades.
func (a *Authenticator) Authenticate() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,query:token",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return a.jwt.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fmt.Errorf("%w: invalid or missing token", apperrors.ErrUnauthorized)
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(a.loadActor(next))
	}
}

func (a *Authenticator) loadActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := Claims(c)
		if claims == nil {
			return apperrors.ErrUnauthorized
		}

		ctx := c.Request().Context()
		revoked, err := a.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return fmt.Errorf("%w: token has been revoked", apperrors.ErrUnauthorized)
		}

		user, err := a.users.FindByID(ctx, claims.UserID)
		if err != nil || !user.IsActive {
			return fmt.Errorf("%w: account not found or disabled", apperrors.ErrUnauthorized)
		}

		SetActor(c, user)
		return next(c)
	}
}

// Authorize allows only the given roles through. It must run after Authenticate.
func Authorize(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if actor == nil {
				return apperrors.ErrUnauthorized
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			return fmt.Errorf("%w: requires role %v", apperrors.ErrForbidden, roles)
		}
	}
}

// SetActor records the acting user on the request.
func SetActor(c echo.Context, u *model.User) {
	c.Set(actorContextKey, u)
}

// Actor returns the authenticated user, or nil on public routes.
func Actor(c echo.Context) *model.User {
	u, _ := c.Get(actorContextKey).(*model.User)
	return u
}

// Claims returns the verified token claims, or nil on public routes.
func Claims(c echo.Context) *auth.Claims {
	cl, _ := c.Get(claimsContextKey).(*auth.Claims)
	return cl
}
