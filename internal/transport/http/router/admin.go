package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/core/server"
	mdw "mood-diary-api/internal/transport/http/middleware"
)

// NewAdminEngine 管理端引擎：ginzap 打底，统一要求 admin 角色
func NewAdminEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer) *gin.Engine {
	r := server.NewEngine(l)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter), mdw.RequireRole("admin"))

	mountAdminActions(admin, db)

	return r
}
