package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/repository"
)

const (
	msgMissingFields      = "please fill in all required fields"
	msgAlreadyRegistered  = "already registered"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidRefresh     = "Invalid refresh token"
)

// Session is what a successful login hands back to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Company  models.Company
}

type UpdateUserInput struct {
	Username string
	Email    string
	Company  models.Company
}

// UserService manages accounts and sessions.
type UserService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if in.Username == "" || email == "" || in.Password == "" ||
		in.Company.Name == "" || in.Company.ProfessionalEmail == "" {
		return nil, apperrors.InvalidInput(msgMissingFields)
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.Conflict(msgAlreadyRegistered)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, s.internal("register", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal("register", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		Company:      in.Company,
		LinkIDs:      []string{},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(msgAlreadyRegistered)
		}
		return nil, s.internal("register", err)
	}

	log.Info().Str("user", user.ID).Msg("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed access token together
// with a longer-lived refresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperrors.InvalidInput(msgMissingFields)
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidCredentials)
		}
		return nil, s.internal("login", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	access, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, s.internal("login", err)
	}
	refresh, err := s.tokens.SignRefresh(user.ID)
	if err != nil {
		return nil, s.internal("login", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The user must
// still exist.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.InvalidInput("No Token")
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		log.Debug().Err(err).Msg("refresh token rejected")
		return "", apperrors.Unauthorized(msgInvalidRefresh)
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.Unauthorized(msgInvalidRefresh)
		}
		return "", s.internal("refresh", err)
	}

	access, err := s.tokens.Sign(userID)
	if err != nil {
		return "", s.internal("refresh", err)
	}
	return access, nil
}

func (s *UserService) Me(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, "me", id)
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if in.Username == "" || email == "" ||
		in.Company.Name == "" || in.Company.ProfessionalEmail == "" {
		return nil, apperrors.InvalidInput(msgMissingFields)
	}

	user, err := s.find(ctx, "update user", id)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = email
	user.Company = in.Company
	user.UpdatedAt = time.Now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(msgAlreadyRegistered)
		}
		return nil, s.internal("update user", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if current == "" || next == "" {
		return apperrors.InvalidInput(msgMissingFields)
	}

	user, err := s.find(ctx, "change password", id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return apperrors.Unauthorized("Invalid password")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return s.internal("change password", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(msgUserNotFound)
		}
		return s.internal("change password", err)
	}
	return nil
}

// SetAvatar records the public path of an uploaded avatar.
func (s *UserService) SetAvatar(ctx context.Context, id, avatar string) (*models.User, error) {
	user, err := s.find(ctx, "set avatar", id)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAvatar(ctx, id, avatar); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, s.internal("set avatar", err)
	}

	user.Avatar = avatar
	log.Info().Str("user", id).Str("avatar", avatar).Msg("avatar updated")
	return user, nil
}

// Delete removes the user and every link it owns.
func (s *UserService) Delete(ctx context.Context, id string) error {
	removed, err := s.users.DeleteUserWithLinks(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(msgUserNotFound)
		}
		return s.internal("delete user", err)
	}

	log.Info().Str("user", id).Int64("links", removed).Msg("user deleted")
	return nil
}

func (s *UserService) find(ctx context.Context, op, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, s.internal(op, err)
	}
	return user, nil
}

func (s *UserService) internal(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("user service failure")
	return apperrors.Internal(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
