package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(0, 10)
	require.Equal(t, 0, offset)
	require.Equal(t, 10, limit)

	offset, limit = Calculate(2, 10)
	require.Equal(t, 20, offset)
	require.Equal(t, 10, limit)

	offset, limit = Calculate(-1, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, limit)

	offset, limit = Calculate(1, 500)
	require.Equal(t, DefaultPageSize, offset)
	require.Equal(t, DefaultPageSize, limit)
}

func TestTotalPages(t *testing.T) {
	require.EqualValues(t, 1, TotalPages(0, 10))
	require.EqualValues(t, 1, TotalPages(10, 10))
	require.EqualValues(t, 2, TotalPages(11, 10))
	require.EqualValues(t, 3, TotalPages(25, 10))
}
