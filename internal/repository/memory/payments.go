// internal/repository/memory/payments.go
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type paymentRepository struct {
	s *Store
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.s.do(ctx, func(st *state) error {
		if payment.ProviderReference != "" && referenceTaken(st, payment.Provider, payment.ProviderReference, uuid.Nil) {
			return &repository.DuplicateError{Field: "provider_reference"}
		}
		stamp(&payment.BaseModel)
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var out models.Payment
	err := r.s.do(ctx, func(st *state) error {
		payment, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepository) GetByReference(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Payment, error) {
	var out *models.Payment
	err := r.s.do(ctx, func(st *state) error {
		for _, payment := range st.payments {
			if payment.Provider == provider && payment.ProviderReference == reference {
				p := payment
				out = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.payments[payment.ID]; !ok {
			return repository.ErrNotFound
		}
		if payment.ProviderReference != "" && referenceTaken(st, payment.Provider, payment.ProviderReference, payment.ID) {
			return &repository.DuplicateError{Field: "provider_reference"}
		}
		payment.UpdatedAt = time.Now()
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	var out []models.Payment
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, payment := range st.payments {
			if payment.UserID == userID {
				out = append(out, payment)
			}
		}
		total = int64(len(out))
		sortByCreated(out, func(p models.Payment) time.Time { return p.CreatedAt }, params)
		out = paginate(out, params)
		return nil
	})
	return out, total, err
}

func referenceTaken(st *state, provider models.PaymentProvider, reference string, except uuid.UUID) bool {
	for id, payment := range st.payments {
		if id != except && payment.Provider == provider && payment.ProviderReference == reference {
			return true
		}
	}
	return false
}

type auditRepository struct {
	s *Store
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.s.do(ctx, func(st *state) error {
		stamp(&entry.BaseModel)
		st.audit = append(st.audit, *entry)
		return nil
	})
}
