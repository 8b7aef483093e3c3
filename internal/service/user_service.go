package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"usersvc/internal/auth"
	"usersvc/internal/cache"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// TokenIssuer issues fresh session tokens.
type TokenIssuer interface {
	GenerateToken(username string) (string, error)
}

// UserUpdate carries the editable profile fields.
type UserUpdate struct {
	Username string
	Name     string
	BirthDay string
}

// Caller is whatever a request presents to identify its sender.
type Caller struct {
	Token    string
	Username string
	Password string
}

// UserService exposes domain operations.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	ResolveCaller(ctx context.Context, caller Caller) (*model.User, error)
	Logout(ctx context.Context, user *model.User) (*model.User, error)
	EditUser(ctx context.Context, id uint, update UserUpdate) (*model.User, error)
	EditAsCaller(ctx context.Context, token string, id uint, update UserUpdate) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens TokenIssuer
	hasher auth.PasswordHasher
	index  auth.TokenIndex
	cache  *cache.Client
	now    func() time.Time
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(
	repo repository.UserRepository,
	tokens TokenIssuer,
	hasher auth.PasswordHasher,
	index auth.TokenIndex,
	cache *cache.Client,
) UserService {
	return &userService{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		index:  index,
		cache:  cache,
		now:    time.Now,
	}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser stamps a fresh token, ONLINE status and creation date on user,
// checks that username and name are unused, and persists it.
func (s *userService) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	token, err := s.tokens.GenerateToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	user.Token = token
	user.Status = model.UserStatusOnline
	user.CreationDate = s.now()

	if err := s.checkIfUserExists(ctx, user.Username, user.Name, 0); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent create; report which field collided
			if dupErr := s.checkIfUserExists(ctx, user.Username, user.Name, 0); dupErr != nil {
				return nil, dupErr
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.cache.Delete(ctx, s.cacheKey(user.ID))
	s.index.Put(ctx, user.Token, user.ID)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

// GetUserByToken resolves the user holding token.
func (s *userService) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.ErrUserNotFound
	}

	if id, ok := s.index.Lookup(ctx, token); ok {
		user, err := s.GetUser(ctx, id)
		if err == nil && user.Token == token {
			return user, nil
		}
		s.index.Forget(ctx, token)
	}

	user, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by token: %w", err)
	}

	s.index.Put(ctx, token, user.ID)
	return user, nil
}

// Authenticate checks credentials without touching the user's status.
// Unknown usernames and wrong passwords fail the same way.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	if !s.hasher.Matches(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the user and marks it ONLINE. The existing token is
// kept; a new one is issued only when the stored token is empty.
func (s *userService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user.Status = model.UserStatusOnline
	if user.Token == "" {
		token, err := s.tokens.GenerateToken(user.Username)
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		user.Token = token
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user %d: %w", user.ID, err)
		}
	} else if err := s.repo.UpdateStatus(ctx, user.ID, model.UserStatusOnline); err != nil {
		return nil, fmt.Errorf("update status of user %d: %w", user.ID, err)
	}

	s.cache.Delete(ctx, s.cacheKey(user.ID))
	s.index.Put(ctx, user.Token, user.ID)
	return user, nil
}

// ResolveCaller maps caller to the stored user it denotes. A token wins over
// credentials; a caller presenting neither resolves to a user without token.
func (s *userService) ResolveCaller(ctx context.Context, caller Caller) (*model.User, error) {
	switch {
	case caller.Token != "":
		user, err := s.GetUserByToken(ctx, caller.Token)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrNotLoggedIn
		}
		return user, err
	case caller.Username != "":
		return s.Authenticate(ctx, caller.Username, caller.Password)
	default:
		return &model.User{}, nil
	}
}

// Logout marks the user holding user.Token OFFLINE. The token itself is kept.
func (s *userService) Logout(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil || user.Token == "" {
		return nil, apperrors.ErrNotLoggedIn
	}

	stored, err := s.repo.FindByToken(ctx, user.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("find user by token: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, stored.ID, model.UserStatusOffline); err != nil {
		return nil, fmt.Errorf("update status of user %d: %w", stored.ID, err)
	}
	stored.Status = model.UserStatusOffline

	s.cache.Delete(ctx, s.cacheKey(stored.ID))
	return stored, nil
}

// EditUser overwrites username, name and birth day of user id.
func (s *userService) EditUser(ctx context.Context, id uint, update UserUpdate) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	user.Username = update.Username
	user.Name = update.Name
	user.BirthDay = update.BirthDay

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if dupErr := s.checkIfUserExists(ctx, user.Username, user.Name, user.ID); dupErr != nil {
				return nil, dupErr
			}
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

// EditAsCaller edits user id on behalf of the holder of token, who must own it.
func (s *userService) EditAsCaller(ctx context.Context, token string, id uint, update UserUpdate) (*model.User, error) {
	caller, err := s.GetUserByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if caller.ID != id {
		if _, err := s.GetUser(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrForbidden
	}
	return s.EditUser(ctx, id, update)
}

// checkIfUserExists fails with a DuplicateFieldError when username and/or name
// belong to a user other than self.
func (s *userService) checkIfUserExists(ctx context.Context, username, name string, self uint) error {
	byUsername, err := s.takenBy(ctx, s.repo.FindByUsername, username, self)
	if err != nil {
		return err
	}
	byName, err := s.takenBy(ctx, s.repo.FindByName, name, self)
	if err != nil {
		return err
	}

	switch {
	case byUsername && byName:
		return apperrors.NewDuplicateFieldError(apperrors.FieldUsername, apperrors.FieldName)
	case byUsername:
		return apperrors.NewDuplicateFieldError(apperrors.FieldUsername)
	case byName:
		return apperrors.NewDuplicateFieldError(apperrors.FieldName)
	}
	return nil
}

func (s *userService) takenBy(
	ctx context.Context,
	find func(context.Context, string) (*model.User, error),
	value string,
	self uint,
) (bool, error) {
	existing, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return existing.ID != self, nil
}
