package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"DevLink/tools/security"
)

// —— context key ——
// 下游 handler 统一用这个 key 读取调用者身份
const CtxUserIDKey = "userID"

// Auth resolves caller identity from a Bearer token. Identity verification
// itself is the auth collaborator's job; here we only need a valid subject.
func Auth(jwtOpts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing token"})
			return
		}
		userID, err := security.Verify(jwtOpts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// CallerID reads the identity set by Auth.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func bearerToken(c *gin.Context) string {
	// 兼容 Authorization: Bearer xxx；ws 握手走 query 参数
	if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
		return authz
	}
	return strings.TrimSpace(c.Query("token"))
}
