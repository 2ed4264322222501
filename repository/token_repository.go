// file: repository/token_repository.go

package repository

import (
	"card-game-api/logger"
	"card-game-api/model"
	"database/sql"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Create(token *model.RefreshToken) error
	GetByToken(token string) (*model.RefreshToken, error)
	MarkRevoked(token string) error
	MarkRevokedIfActive(token string) (bool, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3) RETURNING created_at`
	err := r.DB.QueryRow(query, token.Token, token.UserID, token.ExpiresAt).Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByToken retrieves a refresh token record by its opaque value.
func (r *TokenRepository) GetByToken(token string) (*model.RefreshToken, error) {
	record := &model.RefreshToken{}
	query := `SELECT token, user_id, is_revoked, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, token).Scan(&record.Token, &record.UserID, &record.IsRevoked, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return record, nil
}

// MarkRevoked flags a refresh token as revoked. Revoking an already-revoked
// or unknown token is a no-op, not an error.
func (r *TokenRepository) MarkRevoked(token string) error {
	logger.Log.Info("Executing query to revoke a refresh token")

	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`
	_, err := r.DB.Exec(query, token)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute revoke refresh token query")
		return err
	}
	return nil
}

// MarkRevokedIfActive flags a refresh token as revoked only if it is not
// revoked yet, and reports whether this call flipped the flag. The conditional
// update is what keeps refresh-token rotation single-use under concurrent
// requests: two racing refreshes of the same token, at most one gets true.
func (r *TokenRepository) MarkRevokedIfActive(token string) (bool, error) {
	logger.Log.Info("Executing conditional query to revoke an active refresh token")

	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1 AND is_revoked = FALSE`
	result, err := r.DB.Exec(query, token)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute conditional revoke query")
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
