package user

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps users in process memory with the same uniqueness
// semantics as the Postgres store. Intended for tests and local runs
// without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field, ok := s.conflict(u.ID, u.Username, u.Email); ok {
		return User{}, DuplicateError{Field: field}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u

	return u, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fields Fields) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if fields.Empty() {
		return u, nil
	}

	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if fields.FirstName != nil {
		u.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		u.LastName = *fields.LastName
	}

	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if other.Username == u.Username {
			return User{}, DuplicateError{Field: "username"}
		}
		if other.Email == u.Email {
			return User{}, DuplicateError{Field: "email"}
		}
	}

	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u

	return u, nil
}

func (s *MemoryStore) TouchLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now().UTC()
	u.LastLogin = &now
	s.users[id] = u

	return nil
}

func (s *MemoryStore) conflict(id, username, email string) (string, bool) {
	for otherID, other := range s.users {
		if otherID == id {
			return "id", true
		}
		if other.Username == username {
			return "username", true
		}
		if other.Email == email {
			return "email", true
		}
	}
	return "", false
}
