package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/rs/zerolog/log"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
)

// aliasCharset is the URL-safe nanoid alphabet.
const aliasCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const (
	MinAliasLength = 8
	MaxAliasLength = 14

	DefaultAliasMaxAttempts = 10
)

// aliasPattern is what a caller-provided alias must look like.
var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// reservedAliases are top-level route segments that would shadow the
// /:alias redirect.
var reservedAliases = map[string]struct{}{
	"api":     {},
	"health":  {},
	"metrics": {},
}

// AliasChecker reports whether an alias is already in use.
type AliasChecker interface {
	AliasExists(ctx context.Context, alias string) (bool, error)
}

// AliasGenerator produces random aliases that are free at generation time.
type AliasGenerator struct {
	store       AliasChecker
	maxAttempts int
}

func NewAliasGenerator(store AliasChecker, maxAttempts int) *AliasGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAliasMaxAttempts
	}
	return &AliasGenerator{store: store, maxAttempts: maxAttempts}
}

// Generate picks a length in [MinAliasLength, MaxAliasLength] and draws
// candidates until one is unused. It gives up with
// apperrors.ErrAliasGenerationFailed after maxAttempts collisions, and
// returns store errors as they come.
func (g *AliasGenerator) Generate(ctx context.Context) (string, error) {
	length, err := randomInt(MaxAliasLength - MinAliasLength + 1)
	if err != nil {
		return "", err
	}
	length += MinAliasLength

	for i := 0; i < g.maxAttempts; i++ {
		candidate, err := RandomAlias(length)
		if err != nil {
			return "", err
		}

		taken, err := g.store.AliasExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		log.Warn().Str("alias", candidate).Int("attempt", i+1).Int("max", g.maxAttempts).Msg("alias collision, retrying")
	}
	return "", apperrors.ErrAliasGenerationFailed
}

// RandomAlias returns length characters drawn from the URL-safe alphabet
// with crypto/rand.
func RandomAlias(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := randomInt(len(aliasCharset))
		if err != nil {
			return "", err
		}
		code[i] = aliasCharset[n]
	}
	return string(code), nil
}

// ValidAlias reports whether a caller-provided alias is acceptable.
// Reserved route names are not.
func ValidAlias(alias string) bool {
	return aliasPattern.MatchString(alias) && !IsReservedAlias(alias)
}

// IsReservedAlias reports whether alias names a built-in route.
func IsReservedAlias(alias string) bool {
	_, ok := reservedAliases[alias]
	return ok
}

func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(n.Int64()), nil
}
