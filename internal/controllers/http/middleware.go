package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"keyshop/internal/domain"
	"keyshop/internal/services"
	"keyshop/internal/store"
)

const ctxUserKey = "userID"

// HashToken is how bearer tokens are stored and looked up: hex sha256, never
// the plain token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AuthRequired resolves the bearer token against the tokens collection and
// ensures the account document exists (accounts are created on the first
// authenticated request of a new identity).
func AuthRequired(st store.Store, accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var tok domain.Token
		err := st.Get(c.Request.Context(), store.CollectionTokens, HashToken(parts[1]), &tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if err := accounts.EnsureAccount(c.Request.Context(), tok.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(ctxUserKey, tok.UserID)
		c.Next()
	}
}

// AdminOnly gates admin routes on the role stored in the user document.
func AdminOnly(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxUserKey)

		var u domain.User
		err := st.Get(c.Request.Context(), store.CollectionUsers, userID, &u)
		if err != nil || u.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
