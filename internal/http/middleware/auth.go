// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity into an auth.AccessContext before
// any business logic runs. Two sources are supported:
//
//   - A bearer JWT (Authorization: Bearer <token>) carrying the claims
//     issued by the identity provider: sub, tenant_id, church_id, roles.
//   - Demo/test headers (X-User-ID, X-Tenant-ID, X-Church-ID, X-Roles),
//     accepted only when no bearer token is present. Integration tests and
//     local development use these, mirroring the identity shape without a
//     token-signing dependency.
//
// Requests with neither source (or with an invalid token) are rejected with
// 401 before reaching handlers. Downstream code reads the resolved context
// via AccessFrom; it never parses tokens or role strings itself.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-attendance-backend/internal/auth"
)

// ctxKeyAccess is the Gin context key under which the AccessContext is stored.
const ctxKeyAccess = "accessContext"

// accessClaims is the JWT claim set issued by the identity provider.
type accessClaims struct {
	TenantID string   `json:"tenant_id"`
	ChurchID string   `json:"church_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// AccessFrom returns the AccessContext resolved by Access(). The second
// return value is false when the middleware did not run for this route.
func AccessFrom(c *gin.Context) (auth.AccessContext, bool) {
	v, ok := c.Get(ctxKeyAccess)
	if !ok {
		return auth.AccessContext{}, false
	}
	acc, ok := v.(auth.AccessContext)
	return acc, ok
}

// Access returns a middleware that authenticates the request and stores the
// resolved AccessContext in the Gin context. secret verifies bearer tokens
// (HMAC); allowHeaders additionally accepts the X-* demo headers, which must
// stay disabled in production deployments.
//
// The middleware also stores the user id under the "userID" key and the
// tenant id under the "tenantID" key so that the logging and rate-limiting
// middleware pick them up without depending on the auth package.
func Access(secret []byte, allowHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, err := resolveAccess(c, secret, allowHeaders)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": err.Error(),
			})
			return
		}
		c.Set(ctxKeyAccess, acc)
		c.Set("userID", acc.UserID)
		c.Set("tenantID", acc.TenantID)
		c.Next()
	}
}

func resolveAccess(c *gin.Context, secret []byte, allowHeaders bool) (auth.AccessContext, error) {
	if raw := bearerToken(c); raw != "" {
		claims := &accessClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !tok.Valid {
			return auth.AccessContext{}, errors.New("invalid bearer token")
		}
		if claims.Subject == "" || claims.TenantID == "" {
			return auth.AccessContext{}, errors.New("token missing identity claims")
		}
		return auth.AccessContext{
			UserID:   claims.Subject,
			TenantID: claims.TenantID,
			ChurchID: claims.ChurchID,
			Roles:    claims.Roles,
		}, nil
	}

	if allowHeaders {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		tenantID := strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
		if userID != "" && tenantID != "" {
			return auth.AccessContext{
				UserID:   userID,
				TenantID: tenantID,
				ChurchID: strings.TrimSpace(c.GetHeader("X-Church-ID")),
				Roles:    splitRoles(c.GetHeader("X-Roles")),
			}, nil
		}
	}

	return auth.AccessContext{}, errors.New("authentication required")
}

// bearerToken extracts the token from the Authorization header, or "".
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// splitRoles parses the comma-separated X-Roles header.
func splitRoles(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
