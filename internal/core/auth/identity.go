package auth

import (
	"errors"
	"strconv"
)

// Identity 在边界处把 token 身份解析成带标签的两种形态：
// 真实用户（OwnerKey 有效）或游客（Guest=true）。
// 下游逻辑只看 Identity，不再各自去猜 claims 的形状。
type Identity struct {
	OwnerKey int64
	Guest    bool
	Name     string
	Role     string
}

var ErrBadIdentity = errors.New("identity is neither an owner key nor guest")

// Resolve 由已验签的 claims 解析身份。uid 既不是整数也不是 guest 标记时报错，
// 绝不悄悄退回某个默认 owner。
func Resolve(c *Claims) (Identity, error) {
	if c.UID == GuestUID {
		return Identity{Guest: true, Role: c.Role}, nil
	}
	key, err := strconv.ParseInt(c.UID, 10, 64)
	if err != nil || key <= 0 {
		return Identity{}, ErrBadIdentity
	}
	return Identity{OwnerKey: key, Name: c.Name, Role: c.Role}, nil
}
