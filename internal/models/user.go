package models

import (
	"net/mail"
	"time"

	"github.com/desertthunder/foodgram/internal/shared"
)

// User is an account that authors recipes, favorites them and follows other authors.
type User struct {
	id           int64
	email        string
	username     string
	firstName    string
	lastName     string
	passwordHash string
	isStaff      bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a [User] with a normalized email and current timestamps.
func NewUser(email, username, firstName, lastName string) *User {
	now := time.Now().UTC()
	return &User{
		email:     shared.NormalizeEmail(email),
		username:  username,
		firstName: firstName,
		lastName:  lastName,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() int64            { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) Username() string     { return u.username }
func (u *User) FirstName() string    { return u.firstName }
func (u *User) LastName() string     { return u.lastName }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) IsStaff() bool        { return u.isStaff }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) SetID(id int64)              { u.id = id }
func (u *User) SetEmail(email string)       { u.email = shared.NormalizeEmail(email) }
func (u *User) SetUsername(username string) { u.username = username }
func (u *User) SetFirstName(name string)    { u.firstName = name }
func (u *User) SetLastName(name string)     { u.lastName = name }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }
func (u *User) SetStaff(staff bool)         { u.isStaff = staff }
func (u *User) SetCreatedAt(t time.Time)    { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)    { u.updatedAt = t }

// Validate checks field lengths, the email address and the username character set.
func (u *User) Validate() error {
	if err := requireText("email", u.email, MaxEmailLength); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(u.email); err != nil {
		return &FieldError{Field: "email", Message: "Enter a valid email address."}
	}
	if err := requireText("username", u.username, MaxUserNameLength); err != nil {
		return err
	}
	if !shared.ValidUsername(u.username) {
		return &FieldError{Field: "username", Message: "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."}
	}
	if err := requireText("first_name", u.firstName, MaxUserNameLength); err != nil {
		return err
	}
	if err := requireText("last_name", u.lastName, MaxUserNameLength); err != nil {
		return err
	}
	if u.passwordHash == "" {
		return &FieldError{Field: "password", Message: "This field may not be blank."}
	}
	return nil
}
