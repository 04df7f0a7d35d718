package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/core/cache"
	"mood-diary-api/internal/feature/chat"
	mdw "mood-diary-api/internal/transport/http/middleware"
)

// NewAPIEngine 用户端引擎。chat 上游较慢，Timeout 放宽到 60s。
func NewAPIEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer, chatc *chat.Client, guard chat.Guard, users *cache.Cache) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(60*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(), // Flutter Web 客户端跨域
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 鉴权分组：/me、/diary、/chat 都要先过 AuthJWT
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter))

	mountAuthActions(api, authed, db, jwter, users)
	mountDiaryActions(authed, db)
	mountChatActions(authed, db, chatc, guard)

	return r
}
