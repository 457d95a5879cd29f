package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour, 24*time.Hour)

	token, err := tokens.Sign("user-1")
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = NewTokenManager("other", time.Hour, 0).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute, time.Minute)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }
	token, err := tokens.Sign("user-1")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute, 24*time.Hour)

	refresh, err := tokens.SignRefresh("user-1")
	require.NoError(t, err)
	userID, err := tokens.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = tokens.Verify(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := tokens.Sign("user-1")
	require.NoError(t, err)
	_, err = tokens.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute, 24*time.Hour)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }
	access, err := tokens.Sign("user-1")
	require.NoError(t, err)
	refresh, err := tokens.SignRefresh("user-1")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.VerifyRefresh(refresh)
	assert.NoError(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "hunter2"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("secret", time.Hour, 24*time.Hour)
	token, err := tokens.Sign("user-1")
	require.NoError(t, err)
	refresh, err := tokens.SignRefresh("user-1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", RequireUser(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	tests := []struct {
		name       string
		prepare    func(*http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "bearer",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{name: "missing", prepare: func(*http.Request) {}, wantStatus: http.StatusUnauthorized},
		{
			name:       "refresh token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+refresh) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
