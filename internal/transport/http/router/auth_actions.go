package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/core/cache"
	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/feature/user"
	"mood-diary-api/internal/repo"
	"mood-diary-api/internal/transport/http/ez"
	"mood-diary-api/pkg/utils"
)

// 展示名：字母/韩文/空格/连字符，2~30 位
var nameRE = regexp.MustCompile(`^[A-Za-z가-힣\s\-]{2,30}$`)

type authOut struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func mountAuthActions(api, authed *gin.RouterGroup, db *gorm.DB, jwter *auth.JWTer, users *cache.Cache) {
	ezPublic := ez.New(api)

	type signupIn struct {
		UserID   string `json:"user_id"   binding:"required"`
		UserName string `json:"user_name" binding:"required"`
		Password string `json:"password"  binding:"required"`
	}
	ez.RegisterAction[signupIn, authOut](ezPublic, db, ez.Action[signupIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/signup",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, _ auth.Identity, in *signupIn) (authOut, error) {
			userID := strings.TrimSpace(in.UserID)
			userName := strings.TrimSpace(in.UserName)
			if userID == "" || userName == "" || in.Password == "" {
				return authOut{}, ez.BadRequest("user_id, user_name and password are required")
			}
			if len(in.Password) < 8 {
				return authOut{}, ez.BadRequest("password must be at least 8 characters")
			}
			if !nameRE.MatchString(userName) {
				return authOut{}, ez.BadRequest("invalid user_name")
			}

			u := user.UserModel{
				UserID:       userID,
				UserName:     userName,
				PasswordHash: utils.HashPassword(in.Password),
				Role:         "user",
			}
			if err := repo.NewUserRepo(tx).Create(c, &u); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return authOut{}, ez.BadRequest("user_id already taken")
				}
				return authOut{}, ez.Internal("signup failed", err)
			}

			// 注册即登录：直接发令牌
			tok, err := jwter.Issue(u.ID, u.UserName, u.Role)
			if err != nil {
				return authOut{}, ez.Internal("issue token failed", err)
			}
			return authOut{Token: tok, User: u.ToDomain()}, nil
		},
	})

	type loginIn struct {
		UserID   string `json:"user_id"  binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	ez.RegisterAction[loginIn, authOut](ezPublic, db, ez.Action[loginIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, _ auth.Identity, in *loginIn) (authOut, error) {
			u, err := repo.NewUserRepo(tx).FindByUserID(c, strings.TrimSpace(in.UserID))
			if err != nil {
				return authOut{}, ez.Internal("db error", err)
			}
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return authOut{}, ez.Unauthorized("invalid user_id or password")
			}
			tok, err := jwter.Issue(u.ID, u.UserName, u.Role)
			if err != nil {
				return authOut{}, ez.Internal("issue token failed", err)
			}
			return authOut{Token: tok, User: u.ToDomain()}, nil
		},
	})

	// 游客令牌：只够用 chat，日记接口一律 403
	ez.RegisterAction[struct{}, gin.H](ezPublic, db, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/guest",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ auth.Identity, _ *struct{}) (gin.H, error) {
			tok, err := jwter.IssueGuest()
			if err != nil {
				return nil, ez.Internal("issue token failed", err)
			}
			return gin.H{"token": tok}, nil
		},
	})

	ezAuth := ez.New(authed)

	// /me 用户资料。用户在本系统里不可变，短 TTL 缓存是安全的
	ez.RegisterAction[struct{}, *domain.User](ezAuth, db, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, _ *struct{}) (*domain.User, error) {
			loadUser := func(ctx context.Context) (*domain.User, error) {
				u, err := repo.NewUserRepo(tx).FindByPK(ctx, ident.OwnerKey)
				if err != nil {
					return nil, err
				}
				if u == nil {
					return nil, domain.ErrNotFound
				}
				du := u.ToDomain()
				return &du, nil
			}
			if users == nil {
				return loadUser(c)
			}
			key := fmt.Sprintf("user:%d", ident.OwnerKey)
			return cache.GetOrLoadJSON[domain.User](users, c, key, 5*time.Minute, loadUser)
		},
	})
}
