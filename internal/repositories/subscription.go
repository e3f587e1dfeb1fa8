package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// SubscriptionRepository stores which authors each user follows.
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new [SubscriptionRepository] with the given database connection
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Add subscribes userID to authorID.
//
// Returns [shared.ErrSelfSubscription] when both ids match, [shared.ErrAlreadySubscribed] for duplicates
// and an error wrapping [shared.ErrNotFound] when the author does not exist.
func (r *SubscriptionRepository) Add(userID, authorID int64) error {
	if userID == authorID {
		return shared.ErrSelfSubscription
	}

	_, err := r.db.Exec(
		"INSERT INTO subscriptions (user_id, author_id, created_at) VALUES (?, ?, ?)",
		userID, authorID, time.Now().UTC(),
	)
	if err == nil {
		return nil
	}

	switch {
	case shared.IsUniqueViolation(err):
		return shared.ErrAlreadySubscribed
	case shared.IsForeignKeyViolation(err):
		return notFound("user", authorID)
	default:
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
}

// Remove unsubscribes userID from authorID and reports whether a subscription existed.
func (r *SubscriptionRepository) Remove(userID, authorID int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?", userID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *SubscriptionRepository) Exists(userID, authorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id = ? AND author_id = ?)",
		userID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query subscription: %w", err)
	}
	return exists, nil
}

// ListAuthors returns the authors userID follows, ordered by username.
func (r *SubscriptionRepository) ListAuthors(userID int64, page models.Page) ([]*models.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password, u.is_staff, u.created_at, u.updated_at
		FROM subscriptions s JOIN users u ON u.id = s.author_id
		WHERE s.user_id = ?
		ORDER BY u.username ASC, u.id ASC
	`
	query, args := limitClause(query, []any{userID}, page.Limit, page.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return scanUsers(rows)
}

// Count returns how many authors userID follows.
func (r *SubscriptionRepository) Count(userID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM subscriptions WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

// SubscribedTo reports which of authorIDs userID follows. An anonymous (zero) user follows nobody.
func (r *SubscriptionRepository) SubscribedTo(userID int64, authorIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(authorIDs))
	if userID == 0 || len(authorIDs) == 0 {
		return found, nil
	}

	args := append([]any{userID}, int64Args(authorIDs)...)
	rows, err := r.db.Query(
		"SELECT author_id FROM subscriptions WHERE user_id = ? AND author_id IN ("+placeholders(len(authorIDs))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}
