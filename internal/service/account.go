package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
	"github.com/iliyamo/food-journal-api/internal/repository"
	"github.com/iliyamo/food-journal-api/internal/utils"
)

// UserStore is the account persistence used by AccountService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	EmailExists(ctx context.Context, email string, exceptID uint64) (bool, error)
	UsernameExists(ctx context.Context, username string, exceptID uint64) (bool, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Update(ctx context.Context, id uint64, upd model.UserUpdate) error
}

// PasswordHasher hashes and checks passwords.  utils.BcryptHasher is the
// production implementation.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer is the signing half of utils.TokenCodec.
type TokenIssuer interface {
	Issue(email string, userID uint64, ttl time.Duration) (utils.AccessToken, error)
}

// Messages returned to clients.
const (
	MsgInvalidEmail     = "Invalid email address"
	MsgUnknownLogin     = "Invalid email or username, try again."
	MsgWrongPassword    = "Invalid password, try again."
	MsgNoFieldsToUpdate = "No fields to update"
	MsgUserNotFound     = "User not found"
	MsgUnexpected       = "An unexpected error occurred"
	MsgRevocationFailed = "Access token could not be added"
	MsgUserNotAdded     = "User could not be added"
	MsgPasswordTooLong  = "Password must be at most 72 bytes"
)

// RegisterInput is a new account as submitted by the client.
type RegisterInput struct {
	FirstName      string  `json:"first_name" form:"first_name" validate:"required"`
	LastName       string  `json:"last_name" form:"last_name" validate:"required"`
	Username       string  `json:"username" form:"username" validate:"required"`
	Password       string  `json:"password,omitempty" form:"password" validate:"required"`
	Email          string  `json:"email" form:"email" validate:"required"`
	ProfilePicture *string `json:"profile_picture" form:"profile_picture"`
}

// UpdateInput is a partial profile change; nil fields are left alone.
type UpdateInput struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Username       *string `json:"username"`
	Password       *string `json:"password"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	AccessToken    string
	ExpiresAt      time.Time
	UserID         uint64
	Email          string
	ProfilePicture *string
}

// Profile is the public view of an account.  It never carries the password
// digest or the creation time.
type Profile struct {
	ID             uint64
	FirstName      string
	LastName       string
	Username       string
	Email          string
	ProfilePicture *string
}

// AccountService implements registration, login, profile management and
// logout.
type AccountService struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	registry *RevocationRegistry
	ttl      time.Duration
}

func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, registry *RevocationRegistry, ttl time.Duration) *AccountService {
	if ttl <= 0 {
		ttl = utils.DefaultTokenTTL
	}
	return &AccountService{users: users, hasher: hasher, tokens: tokens, registry: registry, ttl: ttl}
}

// Register creates an account.  Email checks (taken, then syntax) run
// before the username check.  The returned value echoes the input without
// the password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (RegisterInput, error) {
	taken, err := s.users.EmailExists(ctx, in.Email, 0)
	if err != nil {
		return RegisterInput{}, internal(MsgUserNotAdded, err)
	}
	if taken {
		return RegisterInput{}, newError(KindConflict, "Email %s already exists", in.Email)
	}
	if !utils.IsValidEmail(in.Email) {
		return RegisterInput{}, newError(KindValidation, MsgInvalidEmail)
	}
	taken, err = s.users.UsernameExists(ctx, in.Username, 0)
	if err != nil {
		return RegisterInput{}, internal(MsgUserNotAdded, err)
	}
	if taken {
		return RegisterInput{}, newError(KindConflict, "User %s already exists", in.Username)
	}

	digest, err := s.hasher.Hash(in.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return RegisterInput{}, newError(KindValidation, MsgPasswordTooLong)
	}
	if err != nil {
		return RegisterInput{}, internal(MsgUserNotAdded, err)
	}
	u := &model.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Username:       in.Username,
		PasswordHash:   digest,
		Email:          in.Email,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return RegisterInput{}, s.conflictOr(err, in.Email, in.Username, MsgUserNotAdded)
	}

	in.Password = ""
	return in, nil
}

// Login finds the account whose username or email equals login and, if
// the password matches, issues a session token for it.
func (s *AccountService) Login(ctx context.Context, login, password string) (LoginResult, error) {
	u, err := s.users.FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, newError(KindUnauthorized, MsgUnknownLogin)
	}
	if err != nil {
		return LoginResult{}, internal(MsgUnexpected, err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return LoginResult{}, newError(KindUnauthorized, MsgWrongPassword)
	}

	tok, err := s.tokens.Issue(u.Email, u.ID, s.ttl)
	if err != nil {
		return LoginResult{}, internal(MsgUnexpected, err)
	}
	return LoginResult{
		AccessToken:    tok.Token,
		ExpiresAt:      tok.Exp,
		UserID:         u.ID,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}, nil
}

// UpdateProfile applies the fields present in in to userID.  Only the
// supplied fields change; a new password is hashed before it is stored.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint64, in UpdateInput) error {
	upd := model.UserUpdate{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Username:       in.Username,
		Email:          in.Email,
		ProfilePicture: in.ProfilePicture,
	}
	if upd.Empty() && in.Password == nil {
		return newError(KindValidation, MsgNoFieldsToUpdate)
	}

	if in.Email != nil {
		taken, err := s.users.EmailExists(ctx, *in.Email, userID)
		if err != nil {
			return internal(MsgUnexpected, err)
		}
		if taken {
			return newError(KindConflict, "Email %s already exists", *in.Email)
		}
		if !utils.IsValidEmail(*in.Email) {
			return newError(KindValidation, MsgInvalidEmail)
		}
	}
	if in.Username != nil {
		taken, err := s.users.UsernameExists(ctx, *in.Username, userID)
		if err != nil {
			return internal(MsgUnexpected, err)
		}
		if taken {
			return newError(KindConflict, "User %s already exists", *in.Username)
		}
	}
	if in.Password != nil {
		digest, err := s.hasher.Hash(*in.Password)
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return newError(KindValidation, MsgPasswordTooLong)
		}
		if err != nil {
			return internal(MsgUnexpected, err)
		}
		upd.PasswordHash = &digest
	}

	err := s.users.Update(ctx, userID, upd)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, MsgUserNotFound)
	default:
		return s.conflictOr(err, deref(in.Email), deref(in.Username), MsgUnexpected)
	}
}

// GetProfile returns the public profile of userID.
func (s *AccountService) GetProfile(ctx context.Context, userID uint64) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Profile{}, newError(KindNotFound, MsgUserNotFound)
	}
	if err != nil {
		return Profile{}, internal(MsgUnexpected, err)
	}
	return Profile{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}, nil
}

// Logout blacklists token.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.registry.Revoke(ctx, token); err != nil {
		return internal(MsgRevocationFailed, err)
	}
	return nil
}

// conflictOr turns a unique-constraint error from the store into the same
// conflict the pre-checks would have produced, and anything else into an
// internal error with msg.
func (s *AccountService) conflictOr(err error, email, username, msg string) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return newError(KindConflict, "Email %s already exists", email)
	case errors.Is(err, repository.ErrUsernameExists):
		return newError(KindConflict, "User %s already exists", username)
	default:
		return internal(msg, err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
