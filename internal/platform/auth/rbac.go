package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin     = "admin"
	RoleClinician = "clinician"
	RolePatient   = "patient"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFromContext(c.Request().Context())
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
			}
			for _, required := range roles {
				if id.HasRole(required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// ClinicianID returns the acting clinician id, failing with 403 when the
// identity is not a clinician.
func ClinicianID(c echo.Context) (int64, error) {
	id := IdentityFromContext(c.Request().Context())
	if id == nil || id.ClinicianID == 0 {
		return 0, echo.NewHTTPError(http.StatusForbidden, "request is not made by a clinician")
	}
	return id.ClinicianID, nil
}

// PatientID returns the acting patient id, failing with 403 when the identity
// is not a patient.
func PatientID(c echo.Context) (int64, error) {
	id := IdentityFromContext(c.Request().Context())
	if id == nil || id.PatientID == 0 {
		return 0, echo.NewHTTPError(http.StatusForbidden, "request is not made by a patient")
	}
	return id.PatientID, nil
}
