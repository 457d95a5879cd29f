package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
)

const pngDataURLPrefix = "data:image/png;base64,"

// QRService turns arbitrary text into a PNG data URL.
type QRService struct {
	encoder QREncoder
	size    int
	cache   *gocache.Cache
}

// NewQRService caches rendered codes for cacheTTL. A non-positive TTL
// disables the cache.
func NewQRService(encoder QREncoder, size int, cacheTTL time.Duration) *QRService {
	if size <= 0 {
		size = 256
	}
	s := &QRService{encoder: encoder, size: size}
	if cacheTTL > 0 {
		s.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func (s *QRService) Generate(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperrors.InvalidInput("URL is required")
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(content); ok {
			return cached.(string), nil
		}
	}

	png, err := s.encoder.Encode(content, s.size)
	if err != nil {
		log.Error().Err(err).Int("length", len(content)).Msg("qr encoding failed")
		return "", apperrors.Internal(fmt.Errorf("%w: %v", apperrors.ErrEncodingFailed, err))
	}

	dataURL := pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
	if s.cache != nil {
		s.cache.SetDefault(content, dataURL)
	}
	return dataURL, nil
}
