package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortlinks/internal/auth"
	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/services"
)

type RegisterRequest struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Company  models.Company `json:"company"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Company  models.Company `json:"company"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.InvalidInput("Invalid request body"))
		return false
	}
	return true
}

func RegisterHandler(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := users.Register(c.Request.Context(), services.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Company:  req.Company,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, "User registered successfully", user)
	}
}

func LoginHandler(users *services.UserService, tokens *auth.TokenManager, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !bindJSON(c, &req) {
			return
		}

		session, err := users.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		http.SetCookie(c.Writer, auth.SessionCookie(session.AccessToken, tokens.TTL(), secure))
		c.JSON(http.StatusOK, gin.H{
			"message":      "User logged in successfully",
			"token":        session.AccessToken,
			"refreshToken": session.RefreshToken,
			"data":         session.User,
		})
	}
}

// RefreshTokenHandler exchanges a refresh token for a new access token and
// renews the session cookie.
func RefreshTokenHandler(users *services.UserService, tokens *auth.TokenManager, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshTokenRequest
		if !bindJSON(c, &req) {
			return
		}

		access, err := users.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			respondError(c, err)
			return
		}

		http.SetCookie(c.Writer, auth.SessionCookie(access, tokens.TTL(), secure))
		c.JSON(http.StatusOK, gin.H{"accessToken": access})
	}
}

func LogoutHandler(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		http.SetCookie(c.Writer, auth.ExpireCookie(secure))
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
	}
}

func ChangePasswordHandler(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := users.ChangePassword(c.Request.Context(), auth.UserID(c), req.OldPassword, req.Password); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}

func MeHandler(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Me(c.Request.Context(), auth.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "User fetched successfully", user)
	}
}

func UpdateUserHandler(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateUserRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := users.Update(c.Request.Context(), auth.UserID(c), services.UpdateUserInput{
			Username: req.Username,
			Email:    req.Email,
			Company:  req.Company,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "User updated successfully", user)
	}
}

func DeleteUserHandler(users *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := users.Delete(c.Request.Context(), auth.UserID(c)); err != nil {
			respondError(c, err)
			return
		}
		http.SetCookie(c.Writer, auth.ExpireCookie(secure))
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
