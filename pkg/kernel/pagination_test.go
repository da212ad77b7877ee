package kernel_test

import (
	"testing"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsOptions(t *testing.T) {
	opts := kernel.PaginationOptions{Page: 0, PageSize: 0}.Normalize()
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, 20, opts.PageSize)

	opts = kernel.PaginationOptions{Page: -3, PageSize: 500}.Normalize()
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, 20, opts.PageSize)

	opts = kernel.PaginationOptions{Page: 4, PageSize: 50}.Normalize()
	assert.Equal(t, 4, opts.Page)
	assert.Equal(t, 50, opts.PageSize)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, kernel.PaginationOptions{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, kernel.PaginationOptions{Page: 3, PageSize: 20}.Offset())
}

func TestNewPaginated(t *testing.T) {
	page := kernel.NewPaginated([]string{"a", "b"}, 1, 2, 5)
	assert.Equal(t, 3, page.Page.Pages)
	assert.Equal(t, 5, page.Page.Total)
	assert.False(t, page.Empty)

	empty := kernel.NewPaginated([]string{}, 1, 2, 0)
	assert.True(t, empty.Empty)
	assert.Equal(t, 0, empty.Page.Pages)
}
