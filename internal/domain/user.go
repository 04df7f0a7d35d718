package domain

import "time"

// User 对外序列化的用户视图，password_hash 永不出现
type User struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}
