// internal/repository/memory/users.go
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.s.do(ctx, func(st *state) error {
		if emailTaken(st, user.Email, uuid.Nil) {
			return &repository.DuplicateError{Field: "email"}
		}
		stamp(&user.BaseModel)
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out models.User
	err := r.s.do(ctx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.s.do(ctx, func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				u := user
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repository.ErrNotFound
		}
		if emailTaken(st, user.Email, user.ID) {
			return &repository.DuplicateError{Field: "email"}
		}
		user.UpdatedAt = time.Now()
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	var out []models.User
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, user := range st.users {
			if filter.Role != "" && user.Role != filter.Role {
				continue
			}
			if filter.Status != "" && user.Status != filter.Status {
				continue
			}
			if filter.Search != "" && !containsFold(user.Email, filter.Search) && !containsFold(user.Name, filter.Search) {
				continue
			}
			out = append(out, user)
		}
		total = int64(len(out))
		sortByCreated(out, func(u models.User) time.Time { return u.CreatedAt }, filter.PaginationParams)
		out = paginate(out, filter.PaginationParams)
		return nil
	})
	return out, total, err
}

func emailTaken(st *state, email string, except uuid.UUID) bool {
	for id, user := range st.users {
		if id != except && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}
