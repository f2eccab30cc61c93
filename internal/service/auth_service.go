package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/repository"
	"github.com/rynno/rynno-backend-go/internal/tokencrypto"
)

const (
	authorizeEndpoint = "https://accounts.spotify.com/authorize"
	spotifyScopes     = "playlist-modify-private playlist-modify-public user-read-private"

	// refresh slightly before the reported expiry
	expirySkew = time.Minute
)

// ErrReauthRequired signals that the stored refresh token was rejected and
// the user must run the authorization flow again.
var ErrReauthRequired = eris.New("spotify authorization expired, re-authorization required")

// ErrNotConnected signals that no Spotify tokens are stored for the user.
var ErrNotConnected = eris.New("no spotify connection for this user")

// AuthService drives the Spotify authorization-code flow and manages stored
// encrypted tokens.
type AuthService struct {
	spotify     spotify.Client
	tokens      *repository.OAuthRepository
	codec       *tokencrypto.Codec
	stateSecret []byte
	stateTTL    time.Duration
	clientID    string
	redirectURI string
	log         *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(client spotify.Client, tokens *repository.OAuthRepository, codec *tokencrypto.Codec, stateSecret string, stateTTL time.Duration, clientID, redirectURI string) *AuthService {
	return &AuthService{
		spotify:     client,
		tokens:      tokens,
		codec:       codec,
		stateSecret: []byte(stateSecret),
		stateTTL:    stateTTL,
		clientID:    clientID,
		redirectURI: redirectURI,
		log:         zap.L().Named("auth"),
	}
}

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// AuthorizeURL builds the Spotify consent URL with a signed, short-lived
// state token binding the flow to the initiating user.
func (s *AuthService) AuthorizeURL(userID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", eris.Wrap(err, "auth: generate state nonce")
	}

	now := time.Now()
	claims := stateClaims{
		Nonce: hex.EncodeToString(nonce),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateSecret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign state token")
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", s.clientID)
	query.Set("scope", spotifyScopes)
	query.Set("redirect_uri", s.redirectURI)
	query.Set("state", state)

	return authorizeEndpoint + "?" + query.Encode(), nil
}

// ConsumeState verifies the returned state token and yields the user it was
// issued for.
func (s *AuthService) ConsumeState(state string) (string, error) {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("auth: unexpected state signing method %v", t.Header["alg"])
		}
		return s.stateSecret, nil
	})
	if err != nil || !token.Valid {
		return "", eris.Wrap(err, "auth: invalid state token")
	}
	return claims.Subject, nil
}

// Connection is the caller-facing view of a stored Spotify link
type Connection struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// HandleCallback exchanges the authorization code, fetches the profile and
// stores the encrypted token set keyed by the state token's user.
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (*Connection, error) {
	stateUser, err := s.ConsumeState(state)
	if err != nil {
		return nil, err
	}

	tokens, err := s.spotify.ExchangeAuthorizationCode(ctx, code, s.redirectURI)
	if err != nil {
		return nil, err
	}

	profile, err := s.spotify.GetUserProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	userID := stateUser
	if userID == "" {
		userID = profile.ID
	}

	stored, err := s.storeTokens(userID, profile.DisplayName, tokens)
	if err != nil {
		return nil, err
	}

	s.log.Info("spotify connection established", zap.String("user_id", userID))
	return stored, nil
}

// Refresh trades the stored refresh token for a new access token. A rejected
// refresh token clears the stored credentials and reports ErrReauthRequired.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*Connection, error) {
	stored, err := s.tokens.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.RefreshTokenEnc == "" {
		return nil, ErrNotConnected
	}

	refreshToken, err := s.codec.Decrypt(stored.RefreshTokenEnc)
	if err != nil {
		return nil, err
	}

	tokens, err := s.spotify.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		if strings.Contains(err.Error(), "invalid_grant") {
			if delErr := s.tokens.Delete(userID); delErr != nil {
				s.log.Warn("failed to clear rejected tokens", zap.String("user_id", userID), zap.Error(delErr))
			}
			return nil, ErrReauthRequired
		}
		return nil, err
	}

	// Spotify routinely omits refresh_token and scope from refresh
	// responses; keep the stored values so the chain never breaks.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if tokens.Scope == "" {
		tokens.Scope = stored.Scope
	}

	return s.storeTokens(userID, stored.DisplayName, tokens)
}

// AccessToken returns a currently valid access token for the user,
// refreshing through the stored refresh token when the cached one expired.
func (s *AuthService) AccessToken(ctx context.Context, userID string) (string, error) {
	stored, err := s.tokens.GetByUserID(userID)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", ErrNotConnected
	}

	if stored.AccessTokenEnc != "" && time.Now().Before(stored.ExpiresAt.Add(-expirySkew)) {
		return s.codec.Decrypt(stored.AccessTokenEnc)
	}

	if _, err := s.Refresh(ctx, userID); err != nil {
		return "", err
	}

	fresh, err := s.tokens.GetByUserID(userID)
	if err != nil {
		return "", err
	}
	if fresh == nil {
		return "", ErrNotConnected
	}
	return s.codec.Decrypt(fresh.AccessTokenEnc)
}

// Connection returns the stored link metadata without decrypting tokens.
func (s *AuthService) Connection(userID string) (*Connection, error) {
	stored, err := s.tokens.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNotConnected
	}
	return &Connection{
		UserID:      stored.UserID,
		DisplayName: stored.DisplayName,
		Scope:       stored.Scope,
		ExpiresAt:   stored.ExpiresAt,
	}, nil
}

func (s *AuthService) storeTokens(userID, displayName string, tokens *spotify.TokenResponse) (*Connection, error) {
	accessEnc, err := s.codec.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	refreshEnc, err := s.codec.Encrypt(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	record := &repository.OAuthToken{
		UserID:          userID,
		DisplayName:     displayName,
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		Scope:           tokens.Scope,
		ExpiresAt:       expiresAt,
	}
	if err := s.tokens.Save(record); err != nil {
		return nil, err
	}

	return &Connection{
		UserID:      userID,
		DisplayName: displayName,
		Scope:       tokens.Scope,
		ExpiresAt:   expiresAt,
	}, nil
}
