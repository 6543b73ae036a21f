package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 20))
	assert.Equal(t, 20, CalculateOffset(2, 20))
	assert.Equal(t, 90, CalculateOffset(10, 10))
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 1, CalculateTotalPages(0, 20), "an empty result set still has one page")
	assert.Equal(t, 1, CalculateTotalPages(20, 20))
	assert.Equal(t, 2, CalculateTotalPages(21, 20))
	assert.Equal(t, 5, CalculateTotalPages(100, 20))
}

func TestNewPaginationMetadata(t *testing.T) {
	meta := NewPaginationMetadata(45, 2, 20)
	assert.Equal(t, 45, meta.TotalItems)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 20, meta.ItemsPerPage)
}
