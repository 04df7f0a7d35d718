package diary

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"mood-diary-api/internal/domain"
)

// EntryModel 情绪日记行。mood/notes 允许 NULL（缺省即 NULL，不存空串），
// deleted_at 一旦置上就是终态，gorm 软删自动把它从所有读写里排除。
type EntryModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	UserPK    int64          `gorm:"column:user_pk;index;not null"`
	Mood      *string        `gorm:"size:32"`
	Notes     *string        `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (EntryModel) TableName() string { return "emotion_diary" }

func (e *EntryModel) ToDomain() domain.Entry {
	return domain.Entry{
		ID:        e.ID,
		Mood:      e.Mood,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// NullIfBlank 空串/纯空白归一成 NULL
func NullIfBlank(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
