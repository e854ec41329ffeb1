package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsNormalize(t *testing.T) {
	p := Params{Page: 0, Limit: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	assert.Equal(t, DefaultLimit, Params{}.Normalize().Limit)
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}

func TestNewPageComputesTotalPages(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, 23, Params{Page: 2, Limit: 10})
	assert.Equal(t, int64(23), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.Page)

	empty := NewPage[int](nil, 0, Params{})
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
}

func TestResolveSort(t *testing.T) {
	allowed := map[string]string{"name": "products.name", "created_at": "products.created_at"}
	fallback := Sort{Column: "products.created_at", Direction: "DESC"}

	sort, err := ResolveSort("", "", allowed, fallback)
	require.NoError(t, err)
	assert.Equal(t, "products.created_at DESC", sort.Clause())

	sort, err = ResolveSort("NAME", "asc", allowed, fallback)
	require.NoError(t, err)
	assert.Equal(t, "products.name ASC", sort.Clause())

	_, err = ResolveSort("password_hash", "asc", allowed, fallback)
	require.Error(t, err)

	_, err = ResolveSort("name", "sideways", allowed, fallback)
	require.Error(t, err)
}
