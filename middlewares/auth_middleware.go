package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextEmail  = "email"
	ContextToken  = "token"
	ContextClaims = "claims"
)

var (
	errRevocationUnavailable = errors.New("Token revocation status unavailable")

	revocationFailOpen bool
)

// SetRevocationFailOpen decides whether a token is accepted when the
// blacklist cannot be consulted. The default rejects it.
func SetRevocationFailOpen(open bool) {
	revocationFailOpen = open
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// browsers cannot set headers on websocket upgrades
	return c.Query("token")
}

// authenticate validates the token and stores the caller on the context.
func authenticate(c *gin.Context, tokenString string) error {
	claims, err := utils.ParseToken(tokenString)
	if err != nil || claims == nil {
		return errors.New("Invalid or expired token")
	}
	if claims.UserID == 0 {
		return errors.New("Invalid user ID in token")
	}

	revoked, err := utils.IsTokenBlacklisted(c.Request.Context(), tokenString)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("fail_open", revocationFailOpen).Warn("token blacklist lookup failed")
		if !revocationFailOpen {
			return errRevocationUnavailable
		}
	}
	if revoked {
		return errors.New("Token has been revoked")
	}

	r, err := role.Parse(claims.Role)
	if err != nil {
		return errors.New("Invalid role in token")
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, r)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextToken, tokenString)
	c.Set(ContextClaims, claims)
	return nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}

		if err := authenticate(c, tokenString); err != nil {
			utils.RespondError(c, authStatus(err), err)
			c.Abort()
			return
		}

		c.Next()
	}
}

func authStatus(err error) int {
	if errors.Is(err, errRevocationUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if err := authenticate(c, tokenString); err != nil {
				utils.RespondError(c, authStatus(err), err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// CurrentRole returns the authenticated role, or "" for anonymous requests.
func CurrentRole(c *gin.Context) role.Role {
	if v, ok := c.Get(ContextRole); ok {
		if r, ok := v.(role.Role); ok {
			return r
		}
	}
	return ""
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
