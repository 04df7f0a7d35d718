package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mood-diary-api/internal/core/auth"
	resp "mood-diary-api/internal/transport/http/response"
)

// CtxIdentity 解析完的身份放这里，下游只认它
const CtxIdentity = "identity"

// AuthJWT 验签 + 把 claims 归一成 Identity。
// 缺令牌/坏令牌 → 401；验签通过但身份形状不对（非整数也非 guest）→ 403。
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		ident, err := auth.Resolve(claims)
		if errors.Is(err, auth.ErrBadIdentity) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "identity not owner-capable"))
			return
		}
		c.Set(CtxIdentity, ident)
		c.Next()
	}
}

// RequireRole 管理端用：必须是真实用户且角色匹配
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok || ident.Guest || ident.Role != role {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	return ident, ok
}
