package qr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncode(t *testing.T) {
	png, err := NewEncoder().Encode("https://sho.rt/promo", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestEncodeTooLong(t *testing.T) {
	_, err := NewEncoder().Encode(strings.Repeat("x", 5000), 128)
	assert.Error(t, err)
}
