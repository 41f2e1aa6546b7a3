package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/qrcode"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGenerate(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("https://checkout.example.com/s/abc", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	_, err := qrcode.Generate("   ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)

	_, err = qrcode.Generate("x", qrcode.MaxSize+1)
	assert.ErrorIs(t, err, qrcode.ErrSizeOutOfRange)
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.DataURI("https://checkout.example.com/s/abc", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
