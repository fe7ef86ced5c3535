package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated actor of a request. ClinicianID and PatientID
// are zero when the actor does not hold that role.
type Identity struct {
	Subject     string
	Roles       []string
	ClinicianID int64
	PatientID   int64
}

// HasRole reports whether the identity carries role, or is an admin.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// Claims is the bearer token payload issued by the session service.
type Claims struct {
	jwt.RegisteredClaims
	Roles       []string `json:"roles"`
	ClinicianID int64    `json:"clinician_id,omitempty"`
	PatientID   int64    `json:"patient_id,omitempty"`
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the request identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id := &Identity{
				Subject:     claims.Subject,
				Roles:       claims.Roles,
				ClinicianID: claims.ClinicianID,
				PatientID:   claims.PatientID,
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

// Development-only headers that override the injected identity.
const (
	DevRoleHeader        = "X-Dev-Role"
	DevClinicianIDHeader = "X-Dev-Clinician-ID"
	DevPatientIDHeader   = "X-Dev-Patient-ID"
)

// DevAuthMiddleware injects an admin identity (clinician 1) without a token.
// The X-Dev-* headers let a local client act as a specific patient or clinician.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			id := &Identity{Subject: "dev-user", Roles: []string{RoleAdmin}, ClinicianID: 1}
			if role := h.Get(DevRoleHeader); role != "" {
				id.Roles = []string{role}
			}
			if v, err := strconv.ParseInt(h.Get(DevClinicianIDHeader), 10, 64); err == nil {
				id.ClinicianID = v
			}
			if v, err := strconv.ParseInt(h.Get(DevPatientIDHeader), 10, 64); err == nil {
				id.PatientID = v
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}
