package cli

import (
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/cmd"
	"github.com/axellelanca/shortlinks/internal/repository"
	"github.com/axellelanca/shortlinks/internal/services"
)

// newLinkService builds a link service without geolocation or click log,
// which the CLI never needs.
func newLinkService(db *gorm.DB) *services.LinkService {
	return services.NewLinkService(
		repository.NewLinkRepository(db),
		repository.NewUserRepository(db),
		nil,
		services.LinkServiceOptions{
			Domain:           cmd.Cfg.Server.Domain,
			AliasMaxAttempts: cmd.Cfg.Links.AliasMaxAttempts,
			RequireHTTPURL:   cmd.Cfg.Links.RequireHTTPURL,
			ReservedAliases:  []string{cmd.Cfg.Metrics.Path},
		},
	)
}
