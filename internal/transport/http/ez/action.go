package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/domain"
	mdw "mood-diary-api/internal/transport/http/middleware"
	resp "mood-diary-api/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // 自己从 c.Param / c.Query 取
)

// Access 接口的身份要求
type Access int

const (
	Public Access = iota // 不看身份（挂无鉴权分组）
	Token                // 要有效令牌，游客可以（chat 用）
	Owner                // 要真实用户身份；游客一律 403，落库前就拦住
)

// AErr 统一错误对象，配合 resp.Error(code, msg)
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func TooMany(msg string) error      { return &AErr{Code: resp.CodeTooMany, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action I 入参，O 出参。Handler 拿到的 tx 已带请求 context。
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Access  Access
	UseTx   bool // 是否包 gorm 事务
	Handler func(c *gin.Context, tx *gorm.DB, ident auth.Identity, in *I) (O, error)
}

// RegisterAction 注册动作接口：鉴权 → 绑定 → 执行 → 统一错误映射
func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		var ident auth.Identity
		if a.Access != Public {
			got, ok := mdw.IdentityFrom(c)
			if !ok {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if a.Access == Owner && got.Guest {
				c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "guest cannot access owner-scoped resources"))
				return
			}
			ident = got
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		run := func(tx *gorm.DB) (O, error) { return a.Handler(c, tx, ident, &in) }
		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := run(tx)
				out = o
				return e
			})
		} else {
			out, err = run(db.WithContext(c))
		}

		if err != nil {
			var ae *AErr
			switch {
			case errors.As(err, &ae):
				c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
			default:
				c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
