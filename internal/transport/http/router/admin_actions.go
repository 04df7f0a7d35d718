package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/repo"
	"mood-diary-api/internal/transport/http/ez"
)

// 管理端只读：账号不可删（业务上用户无删除），日记也不给管理员看内容
func mountAdminActions(admin *gin.RouterGroup, db *gorm.DB) {
	e := ez.New(admin)

	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按账号/昵称模糊搜
	}
	type row struct {
		ID        int64     `json:"id"`
		UserID    string    `json:"user_id"`
		UserName  string    `json:"user_name"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"created_at"`
		Entries   int64     `json:"entries"` // 活跃日记条数
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	ez.RegisterAction[listQ, listOut](e, db, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Access: ez.Owner, // 分组已过 RequireRole("admin")
		Handler: func(c *gin.Context, tx *gorm.DB, _ auth.Identity, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := repo.NewUserRepo(tx).Search(c, in.Q, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, ez.Internal("list users failed", err)
			}

			diaries := repo.NewDiaryRepo(tx)
			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				n, err := diaries.CountByOwner(c, u.ID)
				if err != nil {
					return listOut{}, ez.Internal("count entries failed", err)
				}
				out.Items = append(out.Items, row{
					ID: u.ID, UserID: u.UserID, UserName: u.UserName,
					Role: u.Role, CreatedAt: u.CreatedAt, Entries: n,
				})
			}
			return out, nil
		},
	})

	type detailOut struct {
		User    domain.User `json:"user"`
		Role    string      `json:"role"`
		Entries int64       `json:"entries"`
	}
	ez.RegisterAction[struct{}, detailOut](e, db, ez.Action[struct{}, detailOut]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Access: ez.Owner,
		Handler: func(c *gin.Context, tx *gorm.DB, _ auth.Identity, _ *struct{}) (detailOut, error) {
			id, err := pathID(c)
			if err != nil {
				return detailOut{}, err
			}
			u, err := repo.NewUserRepo(tx).FindByPK(c, id)
			if err != nil {
				return detailOut{}, ez.Internal("db error", err)
			}
			if u == nil {
				return detailOut{}, ez.NotFound("user not found")
			}
			n, err := repo.NewDiaryRepo(tx).CountByOwner(c, u.ID)
			if err != nil {
				return detailOut{}, ez.Internal("count entries failed", err)
			}
			return detailOut{User: u.ToDomain(), Role: u.Role, Entries: n}, nil
		},
	})
}
