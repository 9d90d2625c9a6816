package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName_TrimsWhitespace(t *testing.T) {
	got, err := NormalizeName("  数学\t")
	require.NoError(t, err)
	assert.Equal(t, "数学", got)
}

func TestNormalizeName_NFC(t *testing.T) {
	// "ヘ" + combining dakuten composes to "ベ"
	decomposed := "\u30d8\u3099クトル"
	got, err := NormalizeName(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "ベクトル", got)
}

func TestNormalizeName_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := NormalizeName(in)
		assert.ErrorIs(t, err, ErrEmptyName)
	}
}
