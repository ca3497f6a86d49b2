package model

import "time"

// User represents an account record as stored in the `fd_users` table.
// Each field corresponds to a column in the database.  The json tags are
// omitted here because these structs are primarily used internally by the
// repository and service layers; handlers define their own response types.
//
// Fields:
//
//	ID             – primary key identifier of the user.
//	FirstName      – given name.
//	LastName       – family name.
//	Username       – unique, case-sensitive login name.
//	PasswordHash   – bcrypt digest; the plaintext is never stored.
//	Email          – unique email address.
//	ProfilePicture – optional URI of the avatar image.
//	CreatedAt      – timestamp of creation, never updated.
type User struct {
	ID             uint64    // fd_users.id
	FirstName      string    // fd_users.first_name
	LastName       string    // fd_users.last_name
	Username       string    // fd_users.username
	PasswordHash   string    // fd_users.password
	Email          string    // fd_users.email
	ProfilePicture *string   // fd_users.profile_picture (nullable)
	CreatedAt      time.Time // fd_users.created_at
}

// UserUpdate carries a partial profile update.  A nil field is left
// untouched; PasswordHash must already be hashed when set.
type UserUpdate struct {
	FirstName      *string
	LastName       *string
	Username       *string
	PasswordHash   *string
	Email          *string
	ProfilePicture *string
}

// Empty reports whether no field is set.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Username == nil &&
		u.PasswordHash == nil && u.Email == nil && u.ProfilePicture == nil
}
