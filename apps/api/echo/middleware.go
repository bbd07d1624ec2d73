package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/mahmoud01140/onlineEdu/core/access"
)

// requireRole lets through actors having one of roles. It must run after authMiddleware.
func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if err := access.RequireRole(usr, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// requireEligibility lets through actors who passed the level exam, then the live exam.
func requireEligibility(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		if err := access.RequireSequentialEligibility(usr); err != nil {
			return err
		}
		return next(ctx)
	}
}
