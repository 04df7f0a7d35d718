package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *user.UserModel) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil && isDupKey(err) {
		return domain.ErrDuplicate
	}
	return err
}

// FindByUserID 按登录账号查。查不到返回 (nil, nil)
func (r *UserRepo) FindByUserID(ctx context.Context, userID string) (*user.UserModel, error) {
	var u user.UserModel
	err := r.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByPK(ctx context.Context, id int64) (*user.UserModel, error) {
	var u user.UserModel
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Search 管理端模糊搜索（账号/昵称），offset 分页
func (r *UserRepo) Search(ctx context.Context, kw string, offset, limit int) ([]user.UserModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&user.UserModel{})
	if s := strings.TrimSpace(kw); s != "" {
		like := "%" + s + "%"
		q = q.Where("user_id LIKE ? OR user_name LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var us []user.UserModel
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&us).Error; err != nil {
		return nil, 0, err
	}
	return us, total, nil
}

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "unique failed")
}
