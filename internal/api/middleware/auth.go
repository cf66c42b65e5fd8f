package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/service"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

const ctxUserIDKey = "userID"

// Auth Bearer token 认证，通过后把已验证的 userID 放进请求上下文
func Auth(authSvc service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "missing access token")
			c.Abort()
			return
		}
		userID, err := authSvc.VerifyAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid access token")
			c.Abort()
			return
		}
		c.Set(ctxUserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID 取认证中间件写入的 userID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}
