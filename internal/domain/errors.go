package domain

import "errors"

var (
	// ErrNotFound 记录不存在 / 已软删 / 属于别人，三种情况对外一律是它，
	// 不向调用方暴露别人的行是否存在
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate 唯一键冲突（注册时 user_id 已被占用）
	ErrDuplicate = errors.New("duplicate record")
)
