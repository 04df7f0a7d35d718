package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/feature/chat"
	"mood-diary-api/internal/transport/http/ez"
)

func mountChatActions(authed *gin.RouterGroup, db *gorm.DB, client *chat.Client, guard chat.Guard) {
	e := ez.New(authed)

	type chatIn struct {
		Message string         `json:"message"`
		History []chat.Message `json:"history"`
	}
	type chatOut struct {
		Response string `json:"response"`
	}
	ez.RegisterAction[chatIn, chatOut](e, db, ez.Action[chatIn, chatOut]{
		Method: http.MethodPost,
		Path:   "/chat",
		Binder: ez.BindJSON,
		Access: ez.Token, // 游客也能聊
		Handler: func(c *gin.Context, _ *gorm.DB, ident auth.Identity, in *chatIn) (chatOut, error) {
			msg := strings.TrimSpace(in.Message)
			if msg == "" {
				return chatOut{}, ez.BadRequest("message is required")
			}

			// 间隔闸按调用者身份限流；闸本身故障时放行，不拿聊天陪葬
			if ok, err := guard.Allow(c, callerKey(c, ident)); err == nil && !ok {
				return chatOut{}, ez.TooMany("too many requests, slow down")
			}

			reply, err := client.Complete(c, msg, in.History)
			if errors.Is(err, chat.ErrUpstreamRate) {
				return chatOut{}, ez.TooMany("model is busy, try again later")
			}
			if err != nil {
				return chatOut{}, ez.Internal("chat failed", err)
			}
			return chatOut{Response: reply}, nil
		},
	})
}

func callerKey(c *gin.Context, ident auth.Identity) string {
	if ident.Guest {
		return "ip:" + c.ClientIP()
	}
	return fmt.Sprintf("user:%d", ident.OwnerKey)
}
