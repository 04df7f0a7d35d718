package diary

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	dateLayout = "2006-01-02"
)

// ListFilter 列表查询的全部可选条件。归属（user_pk）不在这里：
// 它来自令牌，由仓储层无条件先行套上，任何条件组合都越不过它。
type ListFilter struct {
	Mood     string // 逗号分隔支持多选，单值即精确匹配
	Q        string // notes 的大小写不敏感子串搜索
	From     string // YYYY-MM-DD，含当天整天
	To       string // YYYY-MM-DD，含当天整天（按 < 次日零点 处理）
	Page     int
	PageSize int
}

// Normalize 宽松归一：page<1 拉回 1；page_size 钳到 [1,100]，0 取默认 20。
// 日期串坏了不报错，Apply 时按没传处理——这是有意的宽松解析策略。
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize < 1 {
		f.PageSize = 1
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

func (f *ListFilter) Offset() int { return (f.Page - 1) * f.PageSize }

// Pages ceil(total / page_size)
func (f *ListFilter) Pages(total int64) int64 {
	ps := int64(f.PageSize)
	return (total + ps - 1) / ps
}

// Moods 按逗号拆开并去空白，空串整体视为没传
func (f *ListFilter) Moods() []string {
	raw := strings.TrimSpace(f.Mood)
	if raw == "" {
		return nil
	}
	var moods []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			moods = append(moods, m)
		}
	}
	return moods
}

// Apply 把过滤条件叠到查询上，全部 AND。调用方必须先套好 owner 条件。
func (f *ListFilter) Apply(q *gorm.DB) *gorm.DB {
	switch moods := f.Moods(); len(moods) {
	case 0:
	case 1:
		q = q.Where("mood = ?", moods[0])
	default:
		q = q.Where("mood IN ?", moods)
	}

	if s := strings.TrimSpace(f.Q); s != "" {
		q = q.Where("LOWER(notes) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	// from ≥ 当天零点；to < 次日零点，保证 23:59:59 也算在内
	if d, ok := parseDate(f.From); ok {
		q = q.Where("created_at >= ?", d)
	}
	if d, ok := parseDate(f.To); ok {
		q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
	}
	return q
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
