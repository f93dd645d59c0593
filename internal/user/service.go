package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-directory/internal/auth"
	"github.com/ovaphlow/pitchfork/service-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation. Every Hash call uses a fresh salt.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Repository is the user persistence the service needs.
type Repository interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	List(ctx context.Context) (database.ReadResult[entity.User], error)
	GetByID(ctx context.Context, id int64) (database.ReadResult[entity.User], error)
	GetByEmail(ctx context.Context, email string) (database.ReadResult[entity.User], error)
	Update(ctx context.Context, u *entity.User) (database.MutationResult, error)
	DeleteByID(ctx context.Context, id int64) (database.MutationResult, error)
}

// HistoryStore is the login audit log.
type HistoryStore interface {
	Append(ctx context.Context, userID int64, action string) (*entity.LoginHistoryEntry, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
)

// UserService orchestrates signup, profile changes, and the login/logout audit flow.
type UserService struct {
	repo    Repository
	history HistoryStore
	hasher  PasswordHasher
	tokens  TokenIssuer
}

func NewUserService(r Repository, history HistoryStore, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{repo: r, history: history, hasher: hasher, tokens: tokens}
}

// LoginResult is the sanitized user plus the issued token.
type LoginResult struct {
	entity.User
	Token string `json:"token"`
}

// Create hashes the password and inserts the user. The email pre-check only
// saves a round trip; the unique constraint decides, so a concurrent insert
// of the same email still yields ErrEmailTaken.
func (s *UserService) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !existing.Empty() {
		return nil, ErrEmailTaken
	}

	status := in.Status
	if status == "" {
		status = "active"
	}
	u, err := s.repo.Create(ctx, &entity.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Password:   hash,
		Mobile:     in.Mobile,
		UserTypeID: in.UserTypeID,
		Position:   in.Position,
		Company:    in.Company,
		UserImage:  in.UserImage,
		Status:     status,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return nil, err
	}
	out := u.Sanitized()
	return &out, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) (database.ReadResult[entity.User], error) {
	res, err := s.repo.List(ctx)
	if err != nil {
		return res, err
	}
	return sanitizeAll(res), nil
}

// Get looks a user up by id, or by email when id is 0.
func (s *UserService) Get(ctx context.Context, id int64, email string) (database.ReadResult[entity.User], error) {
	var (
		res database.ReadResult[entity.User]
		err error
	)
	if id > 0 {
		res, err = s.repo.GetByID(ctx, id)
	} else {
		res, err = s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return res, err
	}
	return sanitizeAll(res), nil
}

// Update applies p to user id. When nothing differs from the stored row it
// persists nothing and reports an affected-but-unchanged result.
func (s *UserService) Update(ctx context.Context, id int64, p entity.UserPatch) (*entity.User, database.MutationResult, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.MutationResult{}, err
	}
	if cur.Empty() {
		return nil, database.MutationResult{}, ErrUserNotFound
	}
	current := cur.First()

	merged, changed, pwChanged := Merge(current, p, s.hasher)
	if !changed {
		out := current.Sanitized()
		return &out, database.MutationResult{Affected: 1, Changed: 0}, nil
	}
	if pwChanged {
		hash, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return nil, database.MutationResult{}, err
		}
		merged.Password = hash
	}
	res, err := s.repo.Update(ctx, &merged)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.MutationResult{}, fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return nil, database.MutationResult{}, err
	}
	out := merged.Sanitized()
	return &out, res, nil
}

// Merge overlays p on current. changed reports whether any stored value
// would differ; pwChanged whether the password must be re-hashed. The
// password comparison goes through the stored hash, so re-sending the same
// password is not a change.
func Merge(current entity.User, p entity.UserPatch, hasher PasswordHasher) (merged entity.User, changed, pwChanged bool) {
	merged = current
	set := func(dst *string, v *string) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = true
		}
	}
	set(&merged.FirstName, p.FirstName)
	set(&merged.LastName, p.LastName)
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		set(&merged.Email, &e)
	}
	set(&merged.Mobile, p.Mobile)
	set(&merged.Position, p.Position)
	set(&merged.Company, p.Company)
	set(&merged.UserImage, p.UserImage)
	set(&merged.Status, p.Status)
	if p.UserTypeID != nil && *p.UserTypeID != merged.UserTypeID {
		merged.UserTypeID = *p.UserTypeID
		changed = true
	}
	if p.Password != nil && (p.PasswordChanged || !hasher.Verify(current.Password, *p.Password)) {
		pwChanged = true
		changed = true
	}
	return merged, changed, pwChanged
}

// Delete removes user id.
func (s *UserService) Delete(ctx context.Context, id int64) (database.MutationResult, error) {
	return s.repo.DeleteByID(ctx, id)
}

// Login verifies credentials, issues a token from the sanitized record and
// records a "logged in" entry. Unknown email and wrong password both return
// ErrBadCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, ErrBadCredentials
	}
	u := res.First()
	if u.Password == "" || !s.hasher.Verify(u.Password, password) {
		return nil, ErrBadCredentials
	}
	u = u.Sanitized()

	token, err := s.tokens.Issue(auth.Identity{
		UserID:     u.UserID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		UserTypeID: u.UserTypeID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.history.Append(ctx, u.UserID, entity.ActionLoggedIn); err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Token: token}, nil
}

// Logout records a "logged out" entry. It does not check the user exists
// and does not revoke the token.
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	_, err := s.history.Append(ctx, userID, entity.ActionLoggedOut)
	return err
}

// ClearHistory deletes the login history of userID.
func (s *UserService) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	return s.history.DeleteByUser(ctx, userID)
}

func sanitizeAll(res database.ReadResult[entity.User]) database.ReadResult[entity.User] {
	for i := range res.Rows {
		res.Rows[i] = res.Rows[i].Sanitized()
	}
	return res
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
