package domain

import "time"

// Entry 对外序列化的日记视图。deleted_at 与 user_pk 永不出现在响应里。
type Entry struct {
	ID        int64     `json:"id"`
	Mood      *string   `json:"mood"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryPage 列表响应：total 是过滤后全量条数，不受分页影响
type EntryPage struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	Total      int64   `json:"total"`
	TotalPages int64   `json:"total_pages"`
}
