package testcase

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC), ID: 42}

	token := EncodeCursor(in)
	out, err := DecodeCursor(token)
	require.NoError(t, err)

	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeCursor(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"base64 of junk", base64.URLEncoding.EncodeToString([]byte("junk"))},
		{"missing fields", base64.URLEncoding.EncodeToString([]byte(`{}`))},
		{"zero id", base64.URLEncoding.EncodeToString([]byte(`{"created_at":"2026-01-15T09:30:00Z","id":0}`))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeCursor(c.token)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}
