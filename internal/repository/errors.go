// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to modify a post owned by someone else, while
// ErrEmailExists signals that a unique constraint rejected a write.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a write references a user that does
// not exist (e.g. creating a post for a deleted account).
var ErrUserNotFound = errors.New("user not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists and ErrUsernameExists are returned when the store's
// unique constraints reject a user write.  They back up the service
// layer's own pre-checks, which can race.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// duplicateUserKey maps a duplicate-entry error on fd_users to the matching
// sentinel.  Other errors are returned unchanged.
func duplicateUserKey(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	if strings.Contains(me.Message, "uq_fd_users_username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
