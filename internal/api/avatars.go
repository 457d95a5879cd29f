package api

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/axellelanca/shortlinks/internal/auth"
	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/services"
)

const avatarField = "avatar"

var avatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// AvatarOptions says where uploaded avatars are written and served from.
type AvatarOptions struct {
	Dir     string
	URLPath string
	MaxSize int64
}

// UploadAvatarHandler stores the multipart "avatar" file for the caller. The
// :id segment must name the authenticated user.
func UploadAvatarHandler(users *services.UserService, opts AvatarOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserID(c)
		if c.Param("id") != userID {
			respondError(c, apperrors.NotFound("User Not Found"))
			return
		}

		file, err := c.FormFile(avatarField)
		if err != nil {
			respondError(c, apperrors.InvalidInput("please provide an image"))
			return
		}
		if opts.MaxSize > 0 && file.Size > opts.MaxSize {
			respondError(c, apperrors.InvalidInput(fmt.Sprintf("image must not exceed %d bytes", opts.MaxSize)))
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !avatarExtensions[ext] {
			respondError(c, apperrors.InvalidInput("unsupported image type"))
			return
		}

		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			respondError(c, apperrors.Internal(err))
			return
		}
		filename := fmt.Sprintf("%s-%s-%d%s", avatarField, userID, time.Now().UnixNano(), ext)
		dst := filepath.Join(opts.Dir, filename)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			log.Error().Err(err).Str("dst", dst).Msg("failed to save avatar")
			respondError(c, apperrors.Internal(err))
			return
		}

		user, err := users.SetAvatar(c.Request.Context(), userID, path.Join("/", opts.URLPath, filename))
		if err != nil {
			_ = os.Remove(dst)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  "Avatar uploaded successfully",
			"filename": filename,
			"data":     user,
		})
	}
}
