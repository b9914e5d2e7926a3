package testcase

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor identifies the last row of a page in the total (created_at, id)
// order. It travels as an opaque URL-safe base64 token.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        uint      `json:"id"`
}

// EncodeCursor renders a cursor to its opaque wire form.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor token. Any decode failure is a
// ValidationError, distinct from an empty result page.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, NewValidationError("malformed cursor")
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, NewValidationError("malformed cursor")
	}
	if c.CreatedAt.IsZero() || c.ID == 0 {
		return Cursor{}, NewValidationError("malformed cursor")
	}

	return c, nil
}
