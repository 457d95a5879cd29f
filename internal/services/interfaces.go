package services

import (
	"context"

	"github.com/axellelanca/shortlinks/internal/models"
)

// GeoLocator resolves a client address to a country name or code. It is best
// effort: an error or an empty answer both mean the region is unknown.
type GeoLocator interface {
	Country(ctx context.Context, ip string) (string, error)
}

// QREncoder renders content as a size x size PNG.
type QREncoder interface {
	Encode(content string, size int) ([]byte, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs access tokens and exchanges refresh tokens for them.
type TokenIssuer interface {
	Sign(userID string) (string, error)
	SignRefresh(userID string) (string, error)
	VerifyRefresh(token string) (string, error)
}

// ClickPublisher accepts click events for the asynchronous click log. Publish
// must not block; false means the event was dropped.
type ClickPublisher interface {
	Publish(event models.ClickEvent) bool
}
