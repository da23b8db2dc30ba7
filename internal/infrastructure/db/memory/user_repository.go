package memory

import (
	"context"
	"sort"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

type UserRepository struct {
	s *Store
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	out := *user
	out.Role = domain.RoleUser
	if len(r.s.users) == 0 {
		out.Role = domain.RoleAdmin
	}
	r.s.nextUserID++
	out.ID = r.s.nextUserID
	out.DocumentsCount = 0

	stored := out
	r.s.users[out.ID] = &stored
	return &out, nil
}

// FindByLogin prefers a username match over an email match.
func (r *UserRepository) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var byEmail *domain.User
	for _, u := range r.s.users {
		if u.Username == login {
			return r.s.userView(u), nil
		}
		if u.Email == login && (byEmail == nil || u.ID < byEmail.ID) {
			byEmail = u
		}
	}
	if byEmail == nil {
		return nil, domain.ErrUserNotFound
	}
	return r.s.userView(byEmail), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.s.userView(u), nil
}

func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, r.s.userView(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return nil, domain.ErrUserNotFound
	}

	paths := make([]string, 0)
	for docID, d := range r.s.documents {
		if d.OwnerID == id {
			paths = append(paths, d.StoragePath)
			delete(r.s.documents, docID)
		}
	}
	delete(r.s.users, id)
	sort.Strings(paths)
	return paths, nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

// userView copies u and fills in its document count. Callers hold s.mu.
func (s *Store) userView(u *domain.User) *domain.User {
	out := *u
	out.DocumentsCount = s.countDocuments(func(d *domain.Document) bool { return d.OwnerID == u.ID })
	return &out
}
