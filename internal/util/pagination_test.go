package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", page: 0, size: 0, wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "second page", page: 2, size: 10, wantOffset: 10, wantLimit: 10},
		{name: "negative page", page: -3, size: 5, wantOffset: 0, wantLimit: 5},
		{name: "capped", page: 3, size: 1000, wantOffset: 2 * MaxPageSize, wantLimit: MaxPageSize},
		{name: "huge page", page: math.MaxInt, size: MaxPageSize, wantOffset: (MaxPage - 1) * MaxPageSize, wantLimit: MaxPageSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestCalculate_OffsetNeverNegative(t *testing.T) {
	t.Parallel()

	for _, page := range []int{math.MaxInt, math.MaxInt - 1, math.MaxInt / 10, MaxPage + 1, MaxPage} {
		for _, size := range []int{1, 10, MaxPageSize, math.MaxInt} {
			offset, limit := Calculate(page, size)
			assert.GreaterOrEqual(t, offset, 0, "page %d limit %d", page, size)
			assert.LessOrEqual(t, limit, MaxPageSize)
		}
	}

	page, _ := Normalize(math.MaxInt, 10)
	assert.Equal(t, MaxPage, page)
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	for total := int64(0); total <= 50; total++ {
		for limit := 1; limit <= 12; limit++ {
			got := TotalPages(total, limit)
			assert.GreaterOrEqual(t, int64(got*limit), total)
			if total > 0 {
				assert.Less(t, int64((got-1)*limit), total)
			} else {
				assert.Zero(t, got)
			}
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, ParseIntDefault("3", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
