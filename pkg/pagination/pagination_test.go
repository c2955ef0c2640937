package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-5))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(500))
}

func TestLimitWithBuffer(t *testing.T) {
	assert.Equal(t, DefaultLimit+1, LimitWithBuffer(0))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: created, ID: "TX-5b1e9c6a"})

	parsed, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, created.Equal(parsed.CreatedAt))
	assert.Equal(t, "TX-5b1e9c6a", parsed.ID)
}

func TestParseCursor_Empty(t *testing.T) {
	parsed, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseCursor_Invalid(t *testing.T) {
	_, err := ParseCursor("not-base64!!")
	assert.Error(t, err)

	_, err = ParseCursor("bm8tcGlwZQ==") // "no-pipe"
	assert.Error(t, err)

	_, err = ParseCursor("bm90LWEtdGltZXxhYmM=") // "not-a-time|abc"
	assert.Error(t, err)
}
