package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/user"
)

func claimsMiddleware(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool { return c.IsAdmin })
}

func coordinatorMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool { return c.IsCoordinator || c.IsAdmin })
}

func studentMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool { return c.IsStudent })
}

func universitySupervisorMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool { return c.IsUniversitySupervisor || c.IsAdmin })
}

func industrySupervisorMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool { return c.IsIndustrySupervisor || c.IsAdmin })
}

// profile lookups for the acting user

func contextStudentProfile(ctx echo.Context, svc *user.Service) (user.User, user.StudentProfile, error) {
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return user.User{}, user.StudentProfile{}, errors.Wrap(err, "getting context user")
	}
	profile, err := svc.GetStudentProfile(usr.ID)
	if err != nil {
		return user.User{}, user.StudentProfile{}, errors.Wrap(err, "getting student profile")
	}
	return usr, profile, nil
}

func contextStaffProfile(ctx echo.Context, svc *user.Service) (user.User, user.StaffProfile, error) {
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return user.User{}, user.StaffProfile{}, errors.Wrap(err, "getting context user")
	}
	profile, err := svc.GetStaffProfile(usr.ID)
	if err != nil {
		return user.User{}, user.StaffProfile{}, errors.Wrap(err, "getting staff profile")
	}
	return usr, profile, nil
}

func contextIndustryProfile(ctx echo.Context, svc *user.Service) (user.User, user.IndustryProfile, error) {
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return user.User{}, user.IndustryProfile{}, errors.Wrap(err, "getting context user")
	}
	profile, err := svc.GetIndustryProfile(usr.ID)
	if err != nil {
		return user.User{}, user.IndustryProfile{}, errors.Wrap(err, "getting industry profile")
	}
	return usr, profile, nil
}
