package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/axellelanca/shortlinks/internal/auth"
	apperrors "github.com/axellelanca/shortlinks/internal/errors"
	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/repository"
	"github.com/axellelanca/shortlinks/internal/testutils"
)

func newUserService(t *testing.T) (*UserService, *auth.TokenManager, *LinkService) {
	t.Helper()
	db := testutils.NewDB(t)
	users := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager("secret", time.Hour, 24*time.Hour)
	links := NewLinkService(repository.NewLinkRepository(db), users, nil, LinkServiceOptions{Domain: "sho.rt"})
	return NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens), tokens, links
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com ",
		Password: "hunter22",
		Company:  models.Company{Name: "Acme", ProfessionalEmail: "alice@acme.io"},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens, _ := newUserService(t)

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	session, err := svc.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	subject, err := tokens.Verify(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	subject, err = tokens.VerifyRefresh(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	svc, tokens, _ := newUserService(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	session, err := svc.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	subject, err := tokens.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	_, err = svc.Refresh(ctx, "")
	assert.True(t, apperrors.IsInvalidInput(err))

	// an access token cannot be exchanged
	_, err = svc.Refresh(ctx, session.AccessToken)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.Delete(ctx, user.ID))
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	assert.Equal(t, "Invalid refresh token", apperrors.From(err).Message)
}

func TestSetAvatar(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	updated, err := svc.SetAvatar(ctx, user.ID, "/avatars/alice.png")
	require.NoError(t, err)
	assert.Equal(t, "/avatars/alice.png", updated.Avatar)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/avatars/alice.png", me.Avatar)

	_, err = svc.SetAvatar(ctx, "ghost", "/avatars/x.png")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t)
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "already registered", apperrors.From(err).Message)

	missing := validRegistration()
	missing.Company.Name = ""
	_, err = svc.Register(ctx, missing)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Equal(t, "please fill in all required fields", apperrors.From(err).Message)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t)
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	for _, creds := range [][2]string{
		{"alice@example.com", "wrong"},
		{"bob@example.com", "hunter22"},
	} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		assert.Equal(t, "Invalid email or password", apperrors.From(err).Message)
	}
}

func TestUpdateProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{
		Username: "alice2",
		Email:    "alice2@example.com",
		Company:  models.Company{Name: "NewCo", ProfessionalEmail: "a@newco.io"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", me.Email)
	assert.Equal(t, "NewCo", me.Company.Name)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "new-pass")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22", "new-pass"))
	_, err = svc.Login(ctx, "alice2@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestDeleteUserRemovesLinks(t *testing.T) {
	ctx := context.Background()
	svc, _, links := newUserService(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = links.Create(ctx, user.ID, CreateLinkInput{URL: "https://x.com", Alias: "promo"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err = svc.Me(ctx, user.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = links.Resolve(ctx, ResolveInput{Alias: "promo"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, user.ID)))
}
