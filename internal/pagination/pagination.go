// Package pagination provides utilities around page tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"
)

var tokenEncoding = base64.RawURLEncoding

// TokenError is an opaque error related to pagination tokens. The error message
// does not reveal internal details; use [errors.Unwrap] to access the cause.
type TokenError struct {
	cause error
}

// Error satisfies [error].
func (terr TokenError) Error() string {
	return "invalid pagination token"
}

// Unwrap returns the underlying cause of the token error.
func (terr TokenError) Unwrap() error {
	return terr.cause
}

// FromToken decodes an opaque pagination token into the provided cursor value.
// Returns a [TokenError] if decoding fails.
func FromToken(tkn string, cursor any) error {
	data, err := tokenEncoding.DecodeString(tkn)
	if err != nil {
		return TokenError{cause: err}
	}
	if err = json.Unmarshal(data, cursor); err != nil {
		return TokenError{cause: err}
	}
	return nil
}

// ToToken encodes a cursor value into an opaque pagination token. Returns a
// [TokenError] if encoding fails.
func ToToken(cursor any) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", TokenError{cause: err}
	}
	return tokenEncoding.EncodeToString(data), nil
}
