package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortlinks/internal/auth"
	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/services"
)

// CreateLinkRequest accepts a single URL or, for batch creation, a list of
// URLs. An alias only applies to the single form.
type CreateLinkRequest struct {
	URL           string   `json:"url"`
	URLs          []string `json:"urls"`
	AliasProvided string   `json:"aliasProvided"`
}

type UpdateLinkRequest struct {
	URL           string `json:"url"`
	AliasProvided string `json:"aliasProvided"`
}

// BatchResult is one entry of a batch creation response.
type BatchResult struct {
	URL        string `json:"url"`
	Alias      string `json:"alias,omitempty"`
	ShortedURL string `json:"shortedUrl,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

func CreateShortLinkHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.InvalidInput("Invalid request body"))
			return
		}

		if len(req.URLs) > 0 {
			createBatch(c, links, req.URLs)
			return
		}

		link, err := links.Create(c.Request.Context(), auth.UserID(c), services.CreateLinkInput{
			URL:   req.URL,
			Alias: req.AliasProvided,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, "Short URL created successfully", link)
	}
}

// createBatch answers 201 when every URL was shortened, 400 when none was
// and 207 otherwise.
func createBatch(c *gin.Context, links *services.LinkService, urls []string) {
	results := make([]BatchResult, 0, len(urls))
	successful := 0

	for _, target := range urls {
		result := BatchResult{URL: target}
		link, err := links.Create(c.Request.Context(), auth.UserID(c), services.CreateLinkInput{URL: target})
		if err != nil {
			appErr := apperrors.From(err)
			if appErr.Kind == apperrors.KindNotFound {
				// the caller itself is gone, no point going on
				respondError(c, err)
				return
			}
			result.Error = appErr.Message
		} else {
			result.Success = true
			result.Alias = link.Alias
			result.ShortedURL = link.CanonicalURL
			successful++
		}
		results = append(results, result)
	}

	status := http.StatusMultiStatus
	switch successful {
	case len(urls):
		status = http.StatusCreated
	case 0:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"message": "Short URLs processed",
		"data":    results,
		"summary": gin.H{"total": len(urls), "successful": successful, "failed": len(urls) - successful},
	})
}

// ResolveHandler records the click and returns the original URL as text.
func ResolveHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := links.Resolve(c.Request.Context(), resolveInput(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.String(http.StatusOK, target)
	}
}

// RedirectHandler records the click and redirects to the original URL.
func RedirectHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := links.Resolve(c.Request.Context(), resolveInput(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, target)
	}
}

func resolveInput(c *gin.Context) services.ResolveInput {
	return services.ResolveInput{
		Alias:     c.Param("shortCode"),
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Referer:   c.GetHeader("Referer"),
	}
}

func AnalyticsHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := links.Analytics(c.Request.Context(), auth.UserID(c), c.Param("shortCode"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "Short URL analytics retrieved successfully", link)
	}
}

func UpdateShortLinkHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateLinkRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, apperrors.InvalidInput("Invalid request body"))
				return
			}
		}

		link, err := links.Update(c.Request.Context(), auth.UserID(c), c.Param("shortCode"), services.UpdateLinkInput{
			URL:   req.URL,
			Alias: req.AliasProvided,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "Short URL updated successfully", link)
	}
}

func DeleteShortLinkHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		msg, err := links.Delete(c.Request.Context(), auth.UserID(c), c.Param("shortCode"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "Short URL deleted successfully", msg)
	}
}

func ListShortLinksHandler(links *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := links.ListByOwner(c.Request.Context(), auth.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "Short URLs retrieved successfully", list)
	}
}

func QRCodeHandler(qr *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dataURL, err := qr.Generate(c.Request.Context(), c.Query("url"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "QR code generated successfully", dataURL)
	}
}
