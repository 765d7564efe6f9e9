package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

func TestJobCursorRoundTrip(t *testing.T) {
	cursor := &service.JobCursor{
		CreatedAt: time.Date(2025, 6, 15, 12, 0, 0, 123456789, time.UTC),
		JobID:     "job-42",
	}

	token := EncodeJobCursor(cursor)
	decoded, err := DecodeJobCursor(token)
	require.NoError(t, err)

	assert.True(t, decoded.CreatedAt.Equal(cursor.CreatedAt))
	assert.Equal(t, cursor.JobID, decoded.JobID)
}

func TestDecodeJobCursor(t *testing.T) {
	t.Run("empty string is no cursor", func(t *testing.T) {
		cursor, err := DecodeJobCursor("")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeJobCursor("not-base64!!!")
		assert.Error(t, err)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := DecodeJobCursor("bm9zZXBhcmF0b3I=")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid cursor format")
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		// base64("abc|job-1")
		_, err := DecodeJobCursor("YWJjfGpvYi0x")
		assert.Error(t, err)
	})
}
