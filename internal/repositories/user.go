package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

const userColumns = "id, email, username, first_name, last_name, password, is_staff, created_at, updated_at"

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database and sets its generated ID.
//
// A duplicate email (compared case-insensitively) or username yields a [models.FieldError] wrapping [shared.ErrAlreadyExists].
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (email, username, first_name, last_name, password, is_staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Exec(query,
		user.Email(), user.Username(), user.FirstName(), user.LastName(),
		user.PasswordHash(), user.IsStaff(), user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return userConflict(err)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.SetID(id)

	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	return user, err
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	email = shared.NormalizeEmail(email)
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ? COLLATE NOCASE", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	return user, err
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", username)
	}
	return user, err
}

// Update modifies an existing user's profile fields and staff flag.
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE users
		SET email = ?, username = ?, first_name = ?, last_name = ?, is_staff = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		user.Email(), user.Username(), user.FirstName(), user.LastName(), user.IsStaff(), now, user.ID(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return userConflict(err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("user", user.ID())
	}

	user.SetUpdatedAt(now)
	return nil
}

// SetPassword replaces the stored password hash of a user.
func (r *UserRepository) SetPassword(id int64, hash string) error {
	res, err := r.db.Exec("UPDATE users SET password = ?, updated_at = ? WHERE id = ?", hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("user", id)
	}
	return nil
}

// Delete removes a user together with their recipes and relations.
func (r *UserRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("user", id)
	}
	return nil
}

// List retrieves users ordered by username. A zero page limit returns every user.
func (r *UserRepository) List(page models.Page) ([]*models.User, error) {
	query, args := limitClause("SELECT "+userColumns+" FROM users ORDER BY username ASC", nil, page.Limit, page.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return scanUsers(rows)
}

// Count returns the total number of users.
func (r *UserRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// GetMany retrieves users by id, keyed by id. Unknown ids are absent from the map.
func (r *UserRepository) GetMany(ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := "SELECT " + userColumns + " FROM users WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := r.db.Query(query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	list, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		users[u.ID()] = u
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans a single row into a [models.User]
func scanUser(row rowScanner) (*models.User, error) {
	var (
		id        int64
		email     string
		username  string
		firstName string
		lastName  string
		password  string
		isStaff   bool
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &email, &username, &firstName, &lastName, &password, &isStaff, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(email, username, firstName, lastName)
	user.SetID(id)
	user.SetPasswordHash(password)
	user.SetStaff(isStaff)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	return user, nil
}

// scanUsers drains rows into users and closes them.
func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

// userConflict maps a unique violation on users to the offending field.
func userConflict(err error) error {
	if strings.Contains(err.Error(), "users.username") {
		return &models.FieldError{Field: "username", Message: "A user with that username already exists.", Err: shared.ErrAlreadyExists}
	}
	return &models.FieldError{Field: "email", Message: "A user with that email already exists.", Err: shared.ErrAlreadyExists}
}
