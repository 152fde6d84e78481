package fakeuserrepo

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // lower-cased email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if existing, ok := ur.users[user.ID]; ok {
		delete(ur.emailIds, emailKey(existing.Email))
	}
	ur.users[user.ID] = user.Clone()
	ur.emailIds[emailKey(user.Email)] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[emailKey(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return ur.copyOf(id), nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return ur.copyOf(id), nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for id := range ur.users {
		userList = append(userList, ur.copyOf(id))
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})

	if offset >= len(userList) {
		return []*users.User{}, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) SetActive(email string, active bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[emailKey(email)]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	ur.users[id].IsActive = active
	return nil
}

// copyOf must be called with the lock held.
func (ur *FakeUserRepo) copyOf(id string) *users.User {
	return ur.users[id].Clone()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
