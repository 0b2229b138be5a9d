package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const (
	claimsKey = "auth.claims"

	// HeaderAuthToken carries the realtime handshake credential.
	HeaderAuthToken = "X-Auth-Token"
)

// TokenFromRequest extracts a handshake credential from the X-Auth-Token
// header, the Authorization bearer header or the token query parameter, in
// that order.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(HeaderAuthToken)); token != "" {
		return token
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware authenticates API requests with an Authorization bearer token.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			apierrors.DefaultResponder.Unauthorized(c, err.Error())
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := value.(Claims)
	return claims, ok
}

// ActorFrom returns the authenticated caller of the request.
func ActorFrom(c *gin.Context) (identity.Actor, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return identity.Actor{}, false
	}
	return claims.Actor(), true
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			apierrors.DefaultResponder.Unauthorized(c, "missing credentials")
			c.Abort()
			return
		}
		if !slices.Contains(roles, claims.Role) {
			apierrors.DefaultResponder.Forbidden(c, "role "+string(claims.Role)+" is not allowed to access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}
