package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/feature/diary"
	"mood-diary-api/internal/repo"
	"mood-diary-api/internal/transport/http/ez"
)

func mountDiaryActions(authed *gin.RouterGroup, db *gorm.DB) {
	e := ez.New(authed)

	type listQ struct {
		Mood     string `form:"mood"`
		Q        string `form:"q"`
		From     string `form:"from"`
		To       string `form:"to"`
		Page     int    `form:"page,default=1"`
		PageSize int    `form:"page_size"`
		Size     int    `form:"size"` // 线上老客户端用的别名，两个名字都得认
	}
	ez.RegisterAction[listQ, *domain.EntryPage](e, db, ez.Action[listQ, *domain.EntryPage]{
		Method: http.MethodGet,
		Path:   "/diary",
		Binder: ez.BindQuery,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, in *listQ) (*domain.EntryPage, error) {
			size := in.PageSize
			if size == 0 {
				size = in.Size
			}
			f := diary.ListFilter{
				Mood: in.Mood, Q: in.Q,
				From: in.From, To: in.To,
				Page: in.Page, PageSize: size,
			}
			page, err := repo.NewDiaryRepo(tx).List(c, ident.OwnerKey, f)
			if err != nil {
				return nil, ez.Internal("list diary failed", err)
			}
			return page, nil
		},
	})

	// mood/notes 都可省，空串归一成 NULL；id 永远由服务端分配
	type entryIn struct {
		Mood  string `json:"mood"`
		Notes string `json:"notes"`
	}
	ez.RegisterAction[entryIn, *domain.Entry](e, db, ez.Action[entryIn, *domain.Entry]{
		Method: http.MethodPost,
		Path:   "/diary",
		Binder: ez.BindJSON,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, in *entryIn) (*domain.Entry, error) {
			out, err := repo.NewDiaryRepo(tx).Create(c, ident.OwnerKey,
				diary.NullIfBlank(in.Mood), diary.NullIfBlank(in.Notes))
			if err != nil {
				return nil, ez.Internal("create diary failed", err)
			}
			return out, nil
		},
	})

	ez.RegisterAction[struct{}, *domain.Entry](e, db, ez.Action[struct{}, *domain.Entry]{
		Method: http.MethodGet,
		Path:   "/diary/:id",
		Binder: ez.BindNone,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, _ *struct{}) (*domain.Entry, error) {
			id, err := pathID(c)
			if err != nil {
				return nil, err
			}
			return repo.NewDiaryRepo(tx).Get(c, ident.OwnerKey, id)
		},
	})

	ez.RegisterAction[entryIn, *domain.Entry](e, db, ez.Action[entryIn, *domain.Entry]{
		Method: http.MethodPut,
		Path:   "/diary/:id",
		Binder: ez.BindJSON,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, in *entryIn) (*domain.Entry, error) {
			id, err := pathID(c)
			if err != nil {
				return nil, err
			}
			return repo.NewDiaryRepo(tx).Update(c, ident.OwnerKey, id,
				diary.NullIfBlank(in.Mood), diary.NullIfBlank(in.Notes))
		},
	})

	ez.RegisterAction[struct{}, gin.H](e, db, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/diary/:id",
		Binder: ez.BindNone,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, ident auth.Identity, _ *struct{}) (gin.H, error) {
			id, err := pathID(c)
			if err != nil {
				return nil, err
			}
			if err := repo.NewDiaryRepo(tx).SoftDelete(c, ident.OwnerKey, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ez.BadRequest("invalid id")
	}
	return id, nil
}
