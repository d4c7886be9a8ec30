package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(v int64) int64 { return v }

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{AfterID: 42})
	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.AfterID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not base64!")
	assert.Error(t, err)
}

func TestSliceWalksAllPages(t *testing.T) {
	items := []int64{9, 3, 7, 1, 5}

	first, err := Slice(items, identity, Params{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 3}, first.Items)
	require.NotEmpty(t, first.NextCursor)

	second, err := Slice(items, identity, Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 1}, second.Items)

	last, err := Slice(items, identity, Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, last.Items)
	assert.Empty(t, last.NextCursor)
}

func TestSliceUnknownCursorRestarts(t *testing.T) {
	page, err := Slice([]int64{1, 2, 3}, identity, Params{Cursor: EncodeCursor(Cursor{AfterID: 99})})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, page.Items)
}
