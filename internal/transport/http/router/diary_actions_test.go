package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/feature/chat"
	"mood-diary-api/internal/feature/diary"
	"mood-diary-api/internal/feature/user"
	"mood-diary-api/internal/transport/http/response"
)

var testDBSeq atomic.Int64

type testEnv struct {
	r  *gin.Engine
	db *gorm.DB
	j  *auth.JWTer
}

// envelope 接口统一返回 {code,msg,data}，HTTP 状态恒为 200
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T, chatURL string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.UserModel{}, &diary.EntryModel{}))

	j := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "mood-diary", TTL: time.Hour}
	chatc := chat.NewClient(chat.Options{
		BaseURL:    chatURL,
		APIKey:     "test",
		Model:      "test-model",
		MaxRetries: 1,
		Timeout:    5 * time.Second,
	}, zap.NewNop())
	guard := chat.NewLocalGuard(time.Hour)

	r := NewAPIEngine(zap.NewNop(), db, j, chatc, guard, nil)
	return &testEnv{r: r, db: db, j: j}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) envelope {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (e *testEnv) signup(t *testing.T, userID string) string {
	t.Helper()
	env := e.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		fmt.Sprintf(`{"user_id":%q,"user_name":"Tester","password":"longenough"}`, userID))
	require.Equal(t, response.CodeOK, env.Code)

	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *testEnv) createEntry(t *testing.T, token, mood, notes string) int64 {
	t.Helper()
	env := e.do(t, http.MethodPost, "/api/v1/diary", token,
		fmt.Sprintf(`{"mood":%q,"notes":%q}`, mood, notes))
	require.Equal(t, response.CodeOK, env.Code)
	var out domain.Entry
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func TestSignupLoginFlow(t *testing.T) {
	e := newTestEnv(t, "http://127.0.0.1:0")

	tok := e.signup(t, "alice")
	assert.NotEmpty(t, tok)

	// 重复 user_id 注册被拒
	env := e.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		`{"user_id":"alice","user_name":"Tester","password":"longenough"}`)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	// 短密码
	env = e.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		`{"user_id":"bob","user_name":"Tester","password":"short"}`)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	// 展示名不合规
	env = e.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		`{"user_id":"bob","user_name":"x","password":"longenough"}`)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	env = e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"user_id":"alice","password":"longenough"}`)
	assert.Equal(t, response.CodeOK, env.Code)

	env = e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"user_id":"alice","password":"wrongpassword"}`)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	env = e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"user_id":"nobody","password":"longenough"}`)
	assert.Equal(t, response.CodeUnauthorized, env.Code)
}

func TestMeEndpoint(t *testing.T) {
	e := newTestEnv(t, "http://127.0.0.1:0")
	tok := e.signup(t, "alice")

	env := e.do(t, http.MethodGet, "/api/v1/me", tok, "")
	require.Equal(t, response.CodeOK, env.Code)
	var me domain.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.UserID)
	assert.Equal(t, "Tester", me.UserName)
}

func TestDiaryCRUDFlow(t *testing.T) {
	e := newTestEnv(t, "http://127.0.0.1:0")
	tok := e.signup(t, "alice")

	id1 := e.createEntry(t, tok, "happy", "sunny day")
	id2 := e.createEntry(t, tok, "sad", "rainy day")

	// size 是 page_size 的别名
	env := e.do(t, http.MethodGet, "/api/v1/diary?size=1", tok, "")
	require.Equal(t, response.CodeOK, env.Code)
	var page domain.EntryPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.PageSize)
	assert.Equal(t, int64(2), page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id2, page.Items[0].ID)

	env = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/diary/%d", id1), tok, "")
	require.Equal(t, response.CodeOK, env.Code)
	var got domain.Entry
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotNil(t, got.Mood)
	assert.Equal(t, "happy", *got.Mood)

	env = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/diary/%d", id1), tok,
		`{"mood":"calm","notes":""}`)
	require.Equal(t, response.CodeOK, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotNil(t, got.Mood)
	assert.Equal(t, "calm", *got.Mood)
	assert.Nil(t, got.Notes) // 空串归一成 NULL

	env = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/diary/%d", id2), tok, "")
	assert.Equal(t, response.CodeOK, env.Code)

	// 再删同一条 → 404
	env = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/diary/%d", id2), tok, "")
	assert.Equal(t, response.CodeNotFound, env.Code)

	// 坏 id
	env = e.do(t, http.MethodGet, "/api/v1/diary/abc", tok, "")
	assert.Equal(t, response.CodeBadRequest, env.Code)
}

func TestDiaryOwnerIsolation(t *testing.T) {
	e := newTestEnv(t, "http://127.0.0.1:0")
	alice := e.signup(t, "alice")
	bob := e.signup(t, "bob")

	id := e.createEntry(t, alice, "happy", "mine")

	// 他人条目的存在性不泄露：读/改/删一律 404
	env := e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/diary/%d", id), bob, "")
	assert.Equal(t, response.CodeNotFound, env.Code)

	env = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/diary/%d", id), bob, `{"mood":"stolen"}`)
	assert.Equal(t, response.CodeNotFound, env.Code)

	env = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/diary/%d", id), bob, "")
	assert.Equal(t, response.CodeNotFound, env.Code)

	env = e.do(t, http.MethodGet, "/api/v1/diary", bob, "")
	require.Equal(t, response.CodeOK, env.Code)
	var page domain.EntryPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(0), page.Total)
}

func TestAuthRejections(t *testing.T) {
	e := newTestEnv(t, "http://127.0.0.1:0")

	env := e.do(t, http.MethodGet, "/api/v1/diary", "", "")
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	env = e.do(t, http.MethodGet, "/api/v1/diary", "not-a-jwt", "")
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	// 游客令牌可通过验签，但日记是属主资源 → 403
	guestEnv := e.do(t, http.MethodPost, "/api/v1/auth/guest", "", "")
	require.Equal(t, response.CodeOK, guestEnv.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(guestEnv.Data, &out))

	env = e.do(t, http.MethodGet, "/api/v1/diary", out.Token, "")
	assert.Equal(t, response.CodeForbidden, env.Code)

	env = e.do(t, http.MethodGet, "/api/v1/me", out.Token, "")
	assert.Equal(t, response.CodeForbidden, env.Code)
}

func TestChatRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"here for you"}}]}`))
	}))
	defer srv.Close()

	e := newTestEnv(t, srv.URL)
	tok := e.signup(t, "alice")

	env := e.do(t, http.MethodPost, "/api/v1/chat", tok, `{"message":"i feel down"}`)
	require.Equal(t, response.CodeOK, env.Code)
	var out struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "here for you", out.Response)

	// 同一调用者间隔内再次调用被闸住
	env = e.do(t, http.MethodPost, "/api/v1/chat", tok, `{"message":"again"}`)
	assert.Equal(t, response.CodeTooMany, env.Code)

	// 空消息
	env = e.do(t, http.MethodPost, "/api/v1/chat", tok, `{"message":"  "}`)
	assert.Equal(t, response.CodeBadRequest, env.Code)
}

func TestChatAllowsGuest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello guest"}}]}`))
	}))
	defer srv.Close()

	e := newTestEnv(t, srv.URL)

	guestEnv := e.do(t, http.MethodPost, "/api/v1/auth/guest", "", "")
	require.Equal(t, response.CodeOK, guestEnv.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(guestEnv.Data, &out))

	env := e.do(t, http.MethodPost, "/api/v1/chat", out.Token, `{"message":"hi"}`)
	assert.Equal(t, response.CodeOK, env.Code)
}
