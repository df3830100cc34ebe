//go:build unit

package queries_test

import (
	"encoding/base64"
	"testing"
	"time"

	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 2, 14, 9, 30, 15, 123456000, time.UTC)

	encoded := queries.EncodeAfterCursor(ts, id)
	gotTime, gotID, err := queries.DecodeAfterCursor(encoded)
	require.NoError(t, err)

	assert.Equal(t, ts.UnixMicro(), gotTime.UnixMicro())
	assert.Equal(t, id, gotID)
}

func TestDecodeAfterCursor(t *testing.T) {
	cases := []struct {
		name   string
		cursor string
	}{
		{name: "empty cursor", cursor: ""},
		{name: "not base64", cursor: "!!!not-base64!!!"},
		{
			name:   "unsupported version",
			cursor: base64.URLEncoding.EncodeToString([]byte("v2:123-" + uuid.New().String())),
		},
		{
			name:   "missing separator",
			cursor: base64.URLEncoding.EncodeToString([]byte("v1:123456789")),
		},
		{
			name:   "non-numeric timestamp",
			cursor: base64.URLEncoding.EncodeToString([]byte("v1:abc-" + uuid.New().String())),
		},
		{
			name:   "malformed uuid",
			cursor: base64.URLEncoding.EncodeToString([]byte("v1:123-not-a-uuid")),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := queries.DecodeAfterCursor(tc.cursor)
			assert.Error(t, err)
		})
	}
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, queries.ValidateLimit(0))
	assert.Equal(t, 20, queries.ValidateLimit(-5))
	assert.Equal(t, 1, queries.ValidateLimit(1))
	assert.Equal(t, queries.MaxListLimit, queries.ValidateLimit(queries.MaxListLimit))
	assert.Equal(t, queries.MaxListLimit, queries.ValidateLimit(queries.MaxListLimit+1))
}
