package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "keybot/keyhub/pkg/jwt"
	"keybot/keyhub/pkg/response"
)

const ContextKeyMemberClaims = "member_claims"

func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != jwtpkg.TokenTypeAccess {
			response.Unauthorized(c, "invalid token type")
			c.Abort()
			return
		}

		c.Set(ContextKeyMemberClaims, claims)
		c.Next()
	}
}

// MemberID returns the authenticated member, or "" before JWTAuth has run.
func MemberID(c *gin.Context) string {
	claimsVal, exists := c.Get(ContextKeyMemberClaims)
	if !exists {
		return ""
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
