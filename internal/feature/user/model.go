package user

import (
	"time"

	"mood-diary-api/internal/domain"
)

type UserModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"uniqueIndex;size:64;not null"` // 登录账号，建号后不变
	UserName     string `gorm:"size:64;not null"`
	PasswordHash string `gorm:"size:191;not null"`
	Role         string `gorm:"size:16;not null;default:user"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) ToDomain() domain.User {
	return domain.User{
		ID:        u.ID,
		UserID:    u.UserID,
		UserName:  u.UserName,
		CreatedAt: u.CreatedAt,
	}
}
