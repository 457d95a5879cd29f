// Package services contains the business logic of the link shortener.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/metrics"
	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/repository"
)

const (
	msgUserNotFound = "User Not Found"
	msgURLNotFound  = "Url Not Found"
)

// CreateLinkInput is the body of a create request. Alias is optional.
type CreateLinkInput struct {
	URL   string
	Alias string
}

// UpdateLinkInput is the body of an update request. An empty URL keeps the
// current target; an empty Alias rotates to a freshly generated one.
type UpdateLinkInput struct {
	URL   string
	Alias string
}

// ResolveInput describes one redirect. Only Alias is required; the rest is
// used for geolocation and the click log.
type ResolveInput struct {
	Alias     string
	ClientIP  string
	UserAgent string
	Referer   string
}

type LinkServiceOptions struct {
	// Domain builds canonical URLs: https://{Domain}/{alias}.
	Domain           string
	AliasMaxAttempts int
	// StrictAnalytics limits Analytics to links owned by the caller.
	StrictAnalytics bool
	// RequireHTTPURL rejects targets that are not absolute http(s) URLs.
	// Off, any non-empty string is stored as given.
	RequireHTTPURL bool
	// ReservedAliases are refused on top of the built-in route names.
	ReservedAliases []string
	// Clicks receives one event per successful resolve. May be nil.
	Clicks ClickPublisher
}

// LinkService owns the short-link lifecycle.
type LinkService struct {
	links    repository.LinkRepository
	users    repository.UserRepository
	aliases  *AliasGenerator
	geo      GeoLocator
	reserved map[string]struct{}
	opts     LinkServiceOptions
}

func NewLinkService(links repository.LinkRepository, users repository.UserRepository, geo GeoLocator, opts LinkServiceOptions) *LinkService {
	reserved := make(map[string]struct{}, len(opts.ReservedAliases))
	for _, alias := range opts.ReservedAliases {
		if alias = strings.Trim(alias, "/"); alias != "" {
			reserved[alias] = struct{}{}
		}
	}
	return &LinkService{
		links:    links,
		users:    users,
		aliases:  NewAliasGenerator(links, opts.AliasMaxAttempts),
		geo:      geo,
		reserved: reserved,
		opts:     opts,
	}
}

// Create stores a new link for ownerID, with the provided alias or a
// generated one, and appends it to the owner's collection.
func (s *LinkService) Create(ctx context.Context, ownerID string, in CreateLinkInput) (*models.Link, error) {
	if err := s.validateURL(in.URL); err != nil {
		return nil, err
	}
	if _, err := s.findOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	alias := in.Alias
	if alias != "" {
		if err := s.checkAlias(alias); err != nil {
			return nil, err
		}
		taken, err := s.links.AliasExists(ctx, alias)
		if err != nil {
			return nil, s.internal("create", err)
		}
		if taken {
			return nil, aliasTaken(alias)
		}
	} else {
		generated, err := s.aliases.Generate(ctx)
		if err != nil {
			return nil, s.internal("create", err)
		}
		alias = generated
	}

	link := &models.Link{
		OwnerID:     ownerID,
		OriginalURL: in.URL,
		Regions:     []models.Region{},
	}
	link.SetAlias(alias, s.opts.Domain)

	if err := s.links.CreateOwnedLink(ctx, link); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.NotFound(msgUserNotFound)
		case repository.IsUniqueViolation(err):
			return nil, aliasTaken(alias)
		}
		return nil, s.internal("create", err)
	}

	metrics.LinksCreated.Inc()
	log.Info().Str("owner", ownerID).Str("alias", link.Alias).Msg("short link created")
	return link, nil
}

// Resolve records one click on alias and returns its original URL. It never
// checks ownership. Geolocation failures put the click in the Unknown region.
func (s *LinkService) Resolve(ctx context.Context, in ResolveInput) (target string, err error) {
	defer func() {
		switch {
		case err == nil:
			metrics.Redirects.WithLabelValues("found").Inc()
		case apperrors.IsNotFound(err):
			metrics.Redirects.WithLabelValues("not_found").Inc()
		default:
			metrics.Redirects.WithLabelValues("error").Inc()
		}
	}()

	link, err := s.links.GetLinkByAlias(ctx, in.Alias)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound(msgURLNotFound)
		}
		return "", s.internal("resolve", err)
	}

	region := s.regionFor(ctx, in.ClientIP)
	if err := s.links.RecordClick(ctx, link.ID, region); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound(msgURLNotFound)
		}
		return "", s.internal("resolve", err)
	}

	s.publish(models.ClickEvent{
		LinkID:    link.ID,
		Region:    region,
		Timestamp: time.Now(),
		UserAgent: in.UserAgent,
		Referer:   in.Referer,
		IPAddress: in.ClientIP,
	})

	return link.OriginalURL, nil
}

// Analytics returns the link behind alias with its counters. The caller must
// exist; unless StrictAnalytics is set, any caller may read any link.
func (s *LinkService) Analytics(ctx context.Context, ownerID, alias string) (*models.Link, error) {
	if _, err := s.findOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	link, err := s.findLink(ctx, "analytics", alias)
	if err != nil {
		return nil, err
	}
	if s.opts.StrictAnalytics && link.OwnerID != ownerID {
		return nil, apperrors.NotFound(msgURLNotFound)
	}
	return link, nil
}

// Update changes the target URL and alias of a link owned by ownerID. With
// no alias in the input the alias is always rotated.
func (s *LinkService) Update(ctx context.Context, ownerID, alias string, in UpdateLinkInput) (*models.Link, error) {
	link, err := s.ownedLink(ctx, "update", ownerID, alias)
	if err != nil {
		return nil, err
	}

	if in.URL != "" {
		if err := s.validateURL(in.URL); err != nil {
			return nil, err
		}
		link.OriginalURL = in.URL
	}

	next := in.Alias
	if next != "" {
		if err := s.checkAlias(next); err != nil {
			return nil, err
		}
		// keeping the current alias is not a conflict with itself
		if next != link.Alias {
			taken, err := s.links.AliasExists(ctx, next)
			if err != nil {
				return nil, s.internal("update", err)
			}
			if taken {
				return nil, aliasTaken(next)
			}
		}
	} else {
		next, err = s.aliases.Generate(ctx)
		if err != nil {
			return nil, s.internal("update", err)
		}
	}

	link.SetAlias(next, s.opts.Domain)
	link.UpdatedAt = time.Now()

	if err := s.links.UpdateLink(ctx, link); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, aliasTaken(next)
		}
		return nil, s.internal("update", err)
	}

	log.Info().Str("owner", ownerID).Str("from", alias).Str("to", link.Alias).Msg("short link updated")
	return link, nil
}

// Delete removes a link owned by ownerID and detaches it from the owner.
func (s *LinkService) Delete(ctx context.Context, ownerID, alias string) (string, error) {
	link, err := s.ownedLink(ctx, "delete", ownerID, alias)
	if err != nil {
		return "", err
	}

	if err := s.links.DeleteOwnedLink(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound(msgUserNotFound)
		}
		return "", s.internal("delete", err)
	}

	log.Info().Str("owner", ownerID).Str("alias", alias).Msg("short link deleted")
	return fmt.Sprintf("%s Deleted Successfully !", alias), nil
}

// ListByOwner returns every link whose owner_id is ownerID. The owner's own
// collection is only compared against the result, never used as the source.
func (s *LinkService) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	owner, err := s.findOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListLinksByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal("list", err)
	}

	if len(links) != len(owner.LinkIDs) {
		log.Warn().
			Str("owner", ownerID).
			Int("stored", len(links)).
			Int("tracked", len(owner.LinkIDs)).
			Msg("owner link collection out of sync with store")
	}
	return links, nil
}

func (s *LinkService) findOwner(ctx context.Context, ownerID string) (*models.User, error) {
	if ownerID == "" {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, s.internal("find owner", err)
	}
	return owner, nil
}

func (s *LinkService) findLink(ctx context.Context, op, alias string) (*models.Link, error) {
	link, err := s.links.GetLinkByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgURLNotFound)
		}
		return nil, s.internal(op, err)
	}
	return link, nil
}

// ownedLink loads alias for a mutation by ownerID. Links of other owners are
// reported as missing.
func (s *LinkService) ownedLink(ctx context.Context, op, ownerID, alias string) (*models.Link, error) {
	if _, err := s.findOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	link, err := s.findLink(ctx, op, alias)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		log.Warn().Str("op", op).Str("caller", ownerID).Str("alias", alias).Msg("mutation attempted on a link of another owner")
		return nil, apperrors.NotFound(msgURLNotFound)
	}
	return link, nil
}

func (s *LinkService) regionFor(ctx context.Context, ip string) string {
	if s.geo == nil || ip == "" {
		return models.UnknownRegion
	}
	country, err := s.geo.Country(ctx, ip)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("geolocation failed")
		return models.UnknownRegion
	}
	if country == "" {
		return models.UnknownRegion
	}
	return country
}

// publish hands the event to the click workers without ever blocking the
// redirect. A full or stopped queue drops the event.
func (s *LinkService) publish(event models.ClickEvent) {
	if s.opts.Clicks == nil {
		return
	}
	if !s.opts.Clicks.Publish(event) {
		metrics.ClickEventsDropped.Inc()
		log.Warn().Str("link", event.LinkID).Msg("click event queue full or stopped, dropping event")
	}
}

func (s *LinkService) checkAlias(alias string) error {
	if _, reserved := s.reserved[alias]; reserved || IsReservedAlias(alias) {
		return apperrors.InvalidInput(fmt.Sprintf("Alias %q is reserved", alias))
	}
	if !ValidAlias(alias) {
		return apperrors.InvalidInput("alias may only contain letters, digits, '_' and '-' (max 64)")
	}
	return nil
}

func (s *LinkService) internal(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("link service failure")
	return apperrors.Internal(err)
}

func aliasTaken(alias string) error {
	return apperrors.Conflict(fmt.Sprintf("Alias %q is already taken", alias))
}

func (s *LinkService) validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperrors.InvalidInput("url is required")
	}
	if !s.opts.RequireHTTPURL {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return apperrors.InvalidInput("url must be an absolute http(s) URL")
	}
	return nil
}
