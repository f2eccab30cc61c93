package repository

import (
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// OAuthToken is one stored (encrypted) Spotify credential set
type OAuthToken struct {
	UserID          string
	DisplayName     string
	AccessTokenEnc  string
	RefreshTokenEnc string
	Scope           string
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

// OAuthRepository handles database operations for Spotify tokens
type OAuthRepository struct {
	db *sql.DB
}

// NewOAuthRepository creates a new OAuth token repository
func NewOAuthRepository(db *sql.DB) *OAuthRepository {
	return &OAuthRepository{db: db}
}

// Save upserts a user's token set.
func (r *OAuthRepository) Save(token *OAuthToken) error {
	query := `INSERT INTO oauth_tokens
		(user_id, display_name, access_token_enc, refresh_token_enc, scope, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			access_token_enc = excluded.access_token_enc,
			refresh_token_enc = CASE
				WHEN excluded.refresh_token_enc != '' THEN excluded.refresh_token_enc
				ELSE oauth_tokens.refresh_token_enc
			END,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.Exec(query,
		token.UserID, token.DisplayName, token.AccessTokenEnc, token.RefreshTokenEnc,
		token.Scope, token.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return eris.Wrap(err, "save oauth token")
	}
	return nil
}

// GetByUserID retrieves a user's token set, or nil when absent.
func (r *OAuthRepository) GetByUserID(userID string) (*OAuthToken, error) {
	query := `SELECT user_id, display_name, access_token_enc, refresh_token_enc, scope, expires_at
		FROM oauth_tokens WHERE user_id = ?`

	var token OAuthToken
	var displayName, accessEnc, refreshEnc, scope, expiresAt sql.NullString

	err := r.db.QueryRow(query, userID).Scan(
		&token.UserID, &displayName, &accessEnc, &refreshEnc, &scope, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "get oauth token")
	}

	token.DisplayName = displayName.String
	token.AccessTokenEnc = accessEnc.String
	token.RefreshTokenEnc = refreshEnc.String
	token.Scope = scope.String
	if expiresAt.Valid {
		if parsed, err := time.Parse(time.RFC3339, expiresAt.String); err == nil {
			token.ExpiresAt = parsed
		}
	}
	return &token, nil
}

// Delete removes a user's stored tokens, used when a refresh is rejected
// and re-authorization is required.
func (r *OAuthRepository) Delete(userID string) error {
	if _, err := r.db.Exec("DELETE FROM oauth_tokens WHERE user_id = ?", userID); err != nil {
		return eris.Wrap(err, "delete oauth token")
	}
	return nil
}
