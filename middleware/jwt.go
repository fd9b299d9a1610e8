package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/services"
)

var jwtService services.InterfaceJWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config) {
	jwtService = services.NewJWTService(cfg)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Authenticate 验证用户身份，将用户ID和角色写入上下文
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := validateRequest(c)
		if !ok {
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthenticateAdmin 验证管理员权限
func AuthenticateAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := validateRequest(c)
		if !ok {
			return
		}

		if role, exists := claims["role"].(string); !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "权限不足，需要管理员角色",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// validateRequest 校验请求中的令牌，失败时写入错误响应并中止
func validateRequest(c *gin.Context) (jwt.MapClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "缺少Authorization头",
			"data":    nil,
		})
		c.Abort()
		return nil, false
	}

	tokenString := extractToken(authHeader)
	token, err := jwtService.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "无效的认证令牌",
			"data":    nil,
		})
		c.Abort()
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "无效的令牌声明",
			"data":    nil,
		})
		c.Abort()
		return nil, false
	}
	return claims, true
}

// setClaims 将令牌声明写入请求上下文
func setClaims(c *gin.Context, claims jwt.MapClaims) {
	if userID, ok := claims["user_id"].(float64); ok {
		c.Set("userID", uint(userID))
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
	c.Set("claims", claims)
}
