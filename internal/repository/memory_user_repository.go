package repository

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"usersvc/internal/model"
)

// memoryUserRepository keeps users in process memory. It mirrors the GORM
// repository's error contract: gorm.ErrRecordNotFound on misses and
// gorm.ErrDuplicatedKey when a unique column would repeat.
type memoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]model.User
}

// NewMemoryUserRepository builds an in-memory repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[uint]model.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.violatesUnique(user) {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	if r.violatesUnique(user) {
		return gorm.ErrDuplicatedKey
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) UpdateStatus(_ context.Context, id uint, status model.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	r.users[id] = u
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *memoryUserRepository) FindByName(_ context.Context, name string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Name == name })
}

func (r *memoryUserRepository) FindByToken(_ context.Context, token string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Token == token })
}

func (r *memoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordered(), nil
}

func (r *memoryUserRepository) find(match func(model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.ordered() {
		if match(u) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// violatesUnique mirrors the unique indexes on username and name.
func (r *memoryUserRepository) violatesUnique(user *model.User) bool {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || u.Name == user.Name {
			return true
		}
	}
	return false
}

func (r *memoryUserRepository) ordered() []model.User {
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
