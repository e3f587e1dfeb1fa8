package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// TokenRepository stores one opaque authentication token per user.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetOrCreate returns the user's token, issuing one if none exists.
func (r *TokenRepository) GetOrCreate(userID int64) (*models.Token, error) {
	var token *models.Token
	err := inTx(r.db, func(tx *sql.Tx) error {
		existing := models.Token{UserID: userID}
		err := tx.QueryRow("SELECT key, created_at FROM tokens WHERE user_id = ?", userID).
			Scan(&existing.Key, &existing.CreatedAt)
		if err == nil {
			token = &existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query token: %w", err)
		}

		created := models.Token{Key: shared.GenerateToken(), UserID: userID, CreatedAt: time.Now().UTC()}
		_, err = tx.Exec(
			"INSERT INTO tokens (key, user_id, created_at) VALUES (?, ?, ?)",
			created.Key, created.UserID, created.CreatedAt,
		)
		if err != nil {
			if shared.IsForeignKeyViolation(err) {
				return notFound("user", userID)
			}
			return fmt.Errorf("failed to insert token: %w", err)
		}
		token = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// UserID resolves a token key to its user. Unknown keys yield [shared.ErrInvalidToken].
func (r *TokenRepository) UserID(key string) (int64, error) {
	var userID int64
	err := r.db.QueryRow("SELECT user_id FROM tokens WHERE key = ?", key).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, shared.ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query token: %w", err)
	}
	return userID, nil
}

// Delete revokes the user's token, if any.
func (r *TokenRepository) Delete(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
