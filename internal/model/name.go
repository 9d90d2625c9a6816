package model

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyName is returned by NormalizeName for blank names.
var ErrEmptyName = errors.New("category name must not be empty")

// NormalizeName trims surrounding whitespace and applies Unicode NFC
// normalization so that visually identical names are stored identically
// (e.g. a decomposed "ベクトル" and its precomposed form).
func NormalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", ErrEmptyName
	}
	return n, nil
}
