package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"Member_Registry/internal/pkg"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "user_email"
	ContextRoleKey   = "user_role"

	AuthCookieName = "auth-token"
)

// RoleChecker 返回账号当前角色；停用或已删除时 active=false
type RoleChecker interface {
	ActiveRole(ctx context.Context, userID string) (role string, active bool, err error)
}

// AuthMiddleware 令牌来自 auth-token cookie 或 Bearer 头；
// 角色以数据库当前值为准，停用的账号即使令牌未过期也被拒绝
func AuthMiddleware(tokens *pkg.TokenManager, users RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens, users) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Message})
			return
		}
		c.Next()
	}
}

// OptionalAuth 有合法令牌就注入用户，没有也放行
func OptionalAuth(tokens *pkg.TokenManager, users RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, tokens, users)
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens *pkg.TokenManager, users RoleChecker) bool {
	if tokens == nil {
		return false
	}
	var claims *pkg.Claims
	for _, tok := range TokenCandidates(c) {
		if parsed, err := tokens.Parse(tok); err == nil {
			claims = parsed
			break
		}
	}
	if claims == nil {
		return false
	}

	role := claims.Role
	if users != nil {
		current, active, err := users.ActiveRole(c.Request.Context(), claims.UserID())
		if err != nil {
			slog.Error("auth role lookup failed", "user", claims.UserID(), "error", err)
			return false
		}
		if !active {
			return false
		}
		role = current
	}

	c.Set(ContextUserIDKey, claims.UserID())
	c.Set(ContextEmailKey, claims.Email)
	c.Set(ContextRoleKey, role)
	return true
}

// TokenCandidates 按顺序返回 cookie 和 Bearer 头里的令牌，cookie 校验失败时再试 Bearer
func TokenCandidates(c *gin.Context) []string {
	var out []string
	if v, err := c.Cookie(AuthCookieName); err == nil && v != "" {
		out = append(out, v)
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		if v := strings.TrimSpace(parts[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// RequirePermission 放在 AuthMiddleware 之后
func RequirePermission(action pkg.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pkg.Can(c.GetString(ContextRoleKey), action) {
			c.Next()
			return
		}
		err := service.ErrForbidden
		if action == pkg.ActionSettings {
			err = service.ErrAdminRequired
		}
		c.AbortWithStatusJSON(err.Status, gin.H{"error": err.Message})
	}
}
