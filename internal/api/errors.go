package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
)

// respondError writes err as {"message": ...} with the status carried by
// the error. Unknown errors become a 500 without details.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, gin.H{"message": appErr.Message})
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}
