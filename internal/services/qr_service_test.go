package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/qr"
)

type countingEncoder struct {
	calls int
	err   error
}

func (e *countingEncoder) Encode(content string, size int) ([]byte, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []byte(content), nil
}

func TestQRGenerate(t *testing.T) {
	ctx := context.Background()
	svc := NewQRService(qr.NewEncoder(), 128, 0)

	dataURL, err := svc.Generate(ctx, "https://example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestQRGenerateEmpty(t *testing.T) {
	_, err := NewQRService(qr.NewEncoder(), 128, 0).Generate(context.Background(), "  ")
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Equal(t, "URL is required", apperrors.From(err).Message)
}

func TestQRGenerateCaches(t *testing.T) {
	ctx := context.Background()
	enc := &countingEncoder{}
	svc := NewQRService(enc, 64, time.Minute)

	first, err := svc.Generate(ctx, "abc")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "abc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, enc.calls)
}

func TestQRGenerateEncoderFailure(t *testing.T) {
	svc := NewQRService(&countingEncoder{err: errors.New("too long")}, 64, time.Minute)

	_, err := svc.Generate(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.ErrorIs(t, err, apperrors.ErrEncodingFailed)
	assert.Equal(t, 500, apperrors.From(err).Code)
}
