package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/database"
	"github.com/rynno/rynno-backend-go/internal/repository"
	"github.com/rynno/rynno-backend-go/internal/tokencrypto"
)

type fakeTokenClient struct {
	spotify.Client

	refreshResp      *spotify.TokenResponse
	refreshErr       error
	lastRefreshToken string
}

func (f *fakeTokenClient) RefreshAccessToken(_ context.Context, refreshToken string) (*spotify.TokenResponse, error) {
	f.lastRefreshToken = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshResp, nil
}

func newAuthFixture(t *testing.T, client spotify.Client) (*AuthService, *repository.OAuthRepository, *tokencrypto.Codec) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	codec, err := tokencrypto.New("test-token-key")
	require.NoError(t, err)

	tokens := repository.NewOAuthRepository(db)
	svc := NewAuthService(client, tokens, codec,
		"test-state-secret", 10*time.Minute, "client-id", "http://localhost/callback")
	return svc, tokens, codec
}

func seedStoredTokens(t *testing.T, tokens *repository.OAuthRepository, codec *tokencrypto.Codec, userID, refreshToken, scope string) {
	t.Helper()

	accessEnc, err := codec.Encrypt("stale-access")
	require.NoError(t, err)
	refreshEnc, err := codec.Encrypt(refreshToken)
	require.NoError(t, err)
	require.NoError(t, tokens.Save(&repository.OAuthToken{
		UserID:          userID,
		DisplayName:     "Test Listener",
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		Scope:           scope,
		ExpiresAt:       time.Now().Add(-time.Hour),
	}))
}

func TestRefreshKeepsStoredRefreshTokenWhenResponseOmitsIt(t *testing.T) {
	client := &fakeTokenClient{refreshResp: &spotify.TokenResponse{
		AccessToken: "fresh-access",
		ExpiresIn:   3600,
	}}
	svc, tokens, codec := newAuthFixture(t, client)
	seedStoredTokens(t, tokens, codec, "user-1", "long-lived-refresh", "playlist-modify-private")

	connection, err := svc.Refresh(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "long-lived-refresh", client.lastRefreshToken)
	assert.Equal(t, "playlist-modify-private", connection.Scope)

	stored, err := tokens.GetByUserID("user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	refreshToken, err := codec.Decrypt(stored.RefreshTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "long-lived-refresh", refreshToken)
	assert.Equal(t, "playlist-modify-private", stored.Scope)

	// A second refresh must still present the original refresh token.
	_, err = svc.Refresh(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "long-lived-refresh", client.lastRefreshToken)
}

func TestRefreshRotatesWhenResponseCarriesNewToken(t *testing.T) {
	client := &fakeTokenClient{refreshResp: &spotify.TokenResponse{
		AccessToken:  "fresh-access",
		RefreshToken: "rotated-refresh",
		Scope:        "playlist-modify-public",
		ExpiresIn:    3600,
	}}
	svc, tokens, codec := newAuthFixture(t, client)
	seedStoredTokens(t, tokens, codec, "user-1", "long-lived-refresh", "playlist-modify-private")

	_, err := svc.Refresh(context.Background(), "user-1")
	require.NoError(t, err)

	stored, err := tokens.GetByUserID("user-1")
	require.NoError(t, err)
	refreshToken, err := codec.Decrypt(stored.RefreshTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", refreshToken)
	assert.Equal(t, "playlist-modify-public", stored.Scope)
}

func TestRefreshInvalidGrantClearsTokens(t *testing.T) {
	client := &fakeTokenClient{refreshErr: errInvalidGrant{}}
	svc, tokens, codec := newAuthFixture(t, client)
	seedStoredTokens(t, tokens, codec, "user-1", "revoked-refresh", "")

	_, err := svc.Refresh(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrReauthRequired)

	stored, err := tokens.GetByUserID("user-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

type errInvalidGrant struct{}

func (errInvalidGrant) Error() string { return "spotify: token refresh failed: invalid_grant" }
