// Package pagination implements keyset pages over rows with ascending ids.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque pagination state handed to clients. LastID is the
// id of the last row of the previous page.
type Cursor struct {
	LastID uint64 `json:"last_id"`
}

// Encode converts a Cursor into a URL-safe Base64 token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a token produced by Encode.
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
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// Trim cuts rows, fetched with a limit of size+1, down to one page. The
// next token is empty on the last page.
func Trim[T any](rows []T, size int, id func(T) uint64) ([]T, string, error) {
	if size <= 0 || len(rows) <= size {
		return rows, "", nil
	}
	page := rows[:size]
	token, err := Encode(Cursor{LastID: id(page[size-1])})
	if err != nil {
		return nil, "", err
	}
	return page, token, nil
}
