package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mood-diary-api/internal/domain"
	"mood-diary-api/internal/feature/diary"
)

type DiaryRepo struct{ db *gorm.DB }

func NewDiaryRepo(db *gorm.DB) *DiaryRepo { return &DiaryRepo{db: db} }

// scoped 归属条件永远最先套上；gorm 软删自动追加 deleted_at IS NULL
func (r *DiaryRepo) scoped(ctx context.Context, ownerKey int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&diary.EntryModel{}).Where("user_pk = ?", ownerKey)
}

func (r *DiaryRepo) Create(ctx context.Context, ownerKey int64, mood, notes *string) (*domain.Entry, error) {
	m := diary.EntryModel{UserPK: ownerKey, Mood: mood, Notes: notes}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	// 读写回显：created_at/updated_at 以库里落下的为准
	if err := r.db.WithContext(ctx).First(&m, m.ID).Error; err != nil {
		return nil, err
	}
	out := m.ToDomain()
	return &out, nil
}

func (r *DiaryRepo) Get(ctx context.Context, ownerKey, id int64) (*domain.Entry, error) {
	var m diary.EntryModel
	err := r.scoped(ctx, ownerKey).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := m.ToDomain()
	return &out, nil
}

// List 过滤 + 分页。排序固定 created_at DESC, id DESC：
// created_at 相同的行用 id 兜底，翻页顺序才稳定。
func (r *DiaryRepo) List(ctx context.Context, ownerKey int64, f diary.ListFilter) (*domain.EntryPage, error) {
	f.Normalize()
	q := f.Apply(r.scoped(ctx, ownerKey))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []diary.EntryModel
	err := q.Order("created_at DESC, id DESC").
		Limit(f.PageSize).Offset(f.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.Entry, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return &domain.EntryPage{
		Items:      items,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: f.Pages(total),
	}, nil
}

// Update 先确认归属再改；归属不对和已删对调用方不可区分
func (r *DiaryRepo) Update(ctx context.Context, ownerKey, id int64, mood, notes *string) (*domain.Entry, error) {
	var m diary.EntryModel
	err := r.scoped(ctx, ownerKey).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&m).
		Updates(map[string]any{"mood": mood, "notes": notes}).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, ownerKey, id)
}

// SoftDelete 置 deleted_at。第二次删同一条命中 0 行，报 not found 而不是装成功。
func (r *DiaryRepo) SoftDelete(ctx context.Context, ownerKey, id int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_pk = ?", id, ownerKey).
		Delete(&diary.EntryModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByOwner 某用户的活跃条数（管理端用）
func (r *DiaryRepo) CountByOwner(ctx context.Context, ownerKey int64) (int64, error) {
	var n int64
	err := r.scoped(ctx, ownerKey).Count(&n).Error
	return n, err
}
