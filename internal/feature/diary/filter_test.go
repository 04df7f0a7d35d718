package diary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClamps(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 0, 1, 20},
		{"size below range", 1, -5, 1, 1},
		{"size above range", 2, 500, 2, 100},
		{"in range untouched", 3, 42, 3, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ListFilter{Page: tt.page, PageSize: tt.size}
			f.Normalize()
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantPageSize, f.PageSize)
		})
	}
}

func TestOffset(t *testing.T) {
	f := ListFilter{Page: 3, PageSize: 20}
	f.Normalize()
	assert.Equal(t, 40, f.Offset())

	f = ListFilter{}
	f.Normalize()
	assert.Equal(t, 0, f.Offset())
}

func TestPages(t *testing.T) {
	f := ListFilter{Page: 1, PageSize: 20}
	f.Normalize()
	assert.Equal(t, int64(0), f.Pages(0))
	assert.Equal(t, int64(1), f.Pages(1))
	assert.Equal(t, int64(1), f.Pages(20))
	assert.Equal(t, int64(2), f.Pages(21))
	assert.Equal(t, int64(5), f.Pages(100))
}

func TestMoods(t *testing.T) {
	assert.Nil(t, (&ListFilter{}).Moods())
	assert.Nil(t, (&ListFilter{Mood: "   "}).Moods())
	assert.Equal(t, []string{"happy"}, (&ListFilter{Mood: "happy"}).Moods())
	assert.Equal(t, []string{"happy", "sad"}, (&ListFilter{Mood: " happy , sad ,"}).Moods())
}

func TestParseDateLenient(t *testing.T) {
	d, ok := parseDate("2024-01-05")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local), d)

	// 坏日期按没传处理，不是错误
	for _, s := range []string{"", "  ", "not-a-date", "2024-13-40", "05/01/2024"} {
		_, ok := parseDate(s)
		assert.False(t, ok, "input %q", s)
	}
}
