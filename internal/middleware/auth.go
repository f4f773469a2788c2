package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

const ContextIdentityKey = "identity"

// Identity 当前请求的登录用户，只存在 gin.Context 里
type Identity struct {
	UserID uint64
	Email  string
	Roles  []model.RoleName
}

func (i *Identity) HasAnyRole(roles ...model.RoleName) bool {
	for _, have := range i.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Auth 校验 Bearer access token，并要求它是 redis 里该用户当前的会话
func Auth(tokens *pkg.TokenManager, sessions service.SessionStore, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := tokens.ParseAccess(tokenStr)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, pkg.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msg})
			return
		}

		ctx := c.Request.Context()
		// redis校验是否是正确的token
		current, err := sessions.GetUserToken(ctx, claims.UserID)
		if err != nil || current != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "session expired or logged in elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err = sessions.ExtendUserToken(ctx, claims.UserID); err != nil {
			log.WarnContext(ctx, "extend session", slog.Uint64("user_id", claims.UserID), slog.Any("error", err))
		}

		c.Set(ContextIdentityKey, &Identity{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles})
		c.Next()
	}
}

// CurrentIdentity 取出 Auth 注入的身份
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}
