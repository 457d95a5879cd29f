// Package api exposes the link shortener over HTTP with gin.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortlinks/internal/auth"
	"github.com/axellelanca/shortlinks/internal/metrics"
	"github.com/axellelanca/shortlinks/internal/services"
)

// Dependencies are the services the routes call into.
type Dependencies struct {
	Links        *services.LinkService
	Users        *services.UserService
	QR           *services.QRService
	Tokens       *auth.TokenManager
	CookieSecure bool
	// MetricsPath exposes prometheus metrics when non-empty.
	MetricsPath string
	// Avatars are served from Avatars.URLPath when Avatars.Dir is set.
	Avatars AvatarOptions
}

// SetupRoutes registers every route on router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	requireUser := auth.RequireUser(deps.Tokens)

	router.GET("/health", HealthCheckHandler)
	if deps.MetricsPath != "" {
		router.GET(deps.MetricsPath, gin.WrapH(metrics.Handler()))
	}
	if deps.Avatars.Dir != "" && deps.Avatars.URLPath != "" {
		router.Static(deps.Avatars.URLPath, deps.Avatars.Dir)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/healthCheck", HealthCheckHandler)

		authGroup := v1.Group("/auth")
		authGroup.POST("/register", RegisterHandler(deps.Users))
		authGroup.POST("/login", LoginHandler(deps.Users, deps.Tokens, deps.CookieSecure))
		authGroup.POST("/logout", LogoutHandler(deps.CookieSecure))
		authGroup.POST("/refresh-token", RefreshTokenHandler(deps.Users, deps.Tokens, deps.CookieSecure))
		authGroup.PATCH("/change-password", requireUser, ChangePasswordHandler(deps.Users))

		user := v1.Group("/user", requireUser)
		user.GET("/me", MeHandler(deps.Users))
		user.PATCH("/update", UpdateUserHandler(deps.Users))
		user.DELETE("/delete", DeleteUserHandler(deps.Users, deps.CookieSecure))
		user.POST("/upload-avatar/:id", UploadAvatarHandler(deps.Users, deps.Avatars))

		url := v1.Group("/url")
		url.POST("/shorten", requireUser, CreateShortLinkHandler(deps.Links))
		url.GET("/redirect/:shortCode", ResolveHandler(deps.Links))
		url.GET("/my-short-urls", requireUser, ListShortLinksHandler(deps.Links))
		url.GET("/qr-code", QRCodeHandler(deps.QR))
		url.GET("/:shortCode/analytics", requireUser, AnalyticsHandler(deps.Links))
		url.PATCH("/:shortCode/update", requireUser, UpdateShortLinkHandler(deps.Links))
		url.DELETE("/:shortCode/delete", requireUser, DeleteShortLinkHandler(deps.Links))
	}

	router.GET("/:shortCode", RedirectHandler(deps.Links))
}

func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
