package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque pagination state we encode/decode.
// ID + AtUnixMilli establish a stable keyset position.
type Cursor struct {
	ID          string `json:"id"`
	AtUnixMilli int64  `json:"at,omitempty"`
}

// After builds the cursor pointing just past a row.
func After(id string, at time.Time) Cursor {
	return Cursor{ID: id, AtUnixMilli: at.UnixMilli()}
}

// IsZero reports whether the cursor is the first page.
func (c Cursor) IsZero() bool {
	return c.ID == "" && c.AtUnixMilli == 0
}

// At returns the cursor timestamp in UTC.
func (c Cursor) At() time.Time {
	return time.UnixMilli(c.AtUnixMilli).UTC()
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.ID == "" {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
