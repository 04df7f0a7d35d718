package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestUID 游客令牌的 uid 标记（游客只能用 chat，碰不到日记）
const GuestUID = "guest"

type Claims struct {
	UID  string `json:"uid"`  // 用户主键（十进制字符串）或 "guest"
	Name string `json:"name"` // 展示名，仅供客户端显示
	Role string `json:"role"` // "user" / "admin" / "guest"
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Issue 给真实用户签发令牌，uid 为 users.id
func (j *JWTer) Issue(uid int64, name, role string) (string, error) {
	return j.sign(fmt.Sprintf("%d", uid), name, role)
}

// IssueGuest 游客令牌：uid 固定为 "guest"
func (j *JWTer) IssueGuest() (string, error) {
	return j.sign(GuestUID, "", "guest")
}

func (j *JWTer) sign(uid, name, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:  uid,
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
