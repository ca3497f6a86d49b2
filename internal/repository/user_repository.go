package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
)

const userColumns = "id,first_name,last_name,username,password,email,profile_picture,created_at"

// UserRepo persists accounts in the `fd_users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and fills in its ID and CreatedAt.  Unique violations
// come back as ErrEmailExists or ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO fd_users (first_name,last_name,username,password,email,profile_picture,created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.Username, u.PasswordHash, u.Email, u.ProfilePicture, now)
	if err != nil {
		return duplicateUserKey(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt = now
	return nil
}

// EmailExists reports whether a user other than exceptID has this email.
// Pass 0 to check against every user.
func (r *UserRepo) EmailExists(ctx context.Context, email string, exceptID uint64) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM fd_users WHERE email=? AND id<>? LIMIT 1", email, exceptID)
}

// UsernameExists reports whether a user other than exceptID has this username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string, exceptID uint64) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM fd_users WHERE username=? AND id<>? LIMIT 1", username, exceptID)
}

func (r *UserRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByLogin fetches the user whose username or email equals login.
// Matching is exact; the table uses a binary collation.
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM fd_users WHERE username=? OR email=? LIMIT 1", login, login)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM fd_users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Update applies the non-nil fields of upd to user id.  It returns
// ErrNotFound when no row matches.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd model.UserUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("username", upd.Username)
	add("password", upd.PasswordHash)
	add("email", upd.Email)
	add("profile_picture", upd.ProfilePicture)
	if len(sets) == 0 {
		return errors.New("update: no columns")
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		fmt.Sprintf("UPDATE fd_users SET %s WHERE id=?", strings.Join(sets, ",")), args...)
	if err != nil {
		return duplicateUserKey(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u   model.User
		pic sql.NullString
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.PasswordHash, &u.Email, &pic, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.ProfilePicture = nullString(pic)
	return &u, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
