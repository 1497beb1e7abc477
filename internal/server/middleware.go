package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/matheus3301/counsel/internal/auth"
	"github.com/matheus3301/counsel/internal/metrics"
	"github.com/matheus3301/counsel/internal/store"
	"go.uber.org/zap"
)

const userKey = "user_id"

func userID(c echo.Context) string {
	id, _ := c.Get(userKey).(string)
	return id
}

// requireAuth verifies the bearer token and stores the caller's user ID.
func requireAuth(signer *auth.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}
			claims, err := signer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			c.Set(userKey, claims.UserID)
			return next(c)
		}
	}
}

// trackActivity marks the caller as seen. Any authenticated request counts as
// activity for presence.
func trackActivity(db *store.DB, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := db.Touch(userID(c), time.Now().UnixMilli()); err != nil {
				logger.Warn("record activity", zap.Error(err))
			}
			return next(c)
		}
	}
}

// observe records every request on m using the route pattern as label.
func observe(m *metrics.HTTP) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			code := c.Response().Status
			if err != nil {
				code = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					code = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.Observe(route, c.Request().Method, code, time.Since(start))
			return err
		}
	}
}
