// internal/repository/memory/orders.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type cartRepository struct {
	s *Store
}

func (r *cartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.s.do(ctx, func(st *state) error {
		for _, item := range st.cartItems {
			if item.UserID != userID {
				continue
			}
			if variant, ok := st.variants[item.VariantID]; ok {
				v := variant
				item.Variant = &v
			}
			out = append(out, item)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *cartRepository) GetItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var out models.CartItem
	err := r.s.do(ctx, func(st *state) error {
		item, ok := st.cartItems[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) FindItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.s.do(ctx, func(st *state) error {
		for _, item := range st.cartItems {
			if item.UserID == userID && item.VariantID == variantID {
				i := item
				out = &i
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *cartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.s.do(ctx, func(st *state) error {
		for _, existing := range st.cartItems {
			if existing.UserID == item.UserID && existing.VariantID == item.VariantID {
				return &repository.DuplicateError{Field: "variant_id"}
			}
		}
		stamp(&item.BaseModel)
		stored := *item
		stored.Variant = nil
		st.cartItems[stored.ID] = stored
		return nil
	})
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.cartItems[item.ID]; !ok {
			return repository.ErrNotFound
		}
		item.UpdatedAt = time.Now()
		stored := *item
		stored.Variant = nil
		st.cartItems[stored.ID] = stored
		return nil
	})
}

func (r *cartRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.cartItems[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.cartItems, id)
		return nil
	})
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.s.do(ctx, func(st *state) error {
		for id, item := range st.cartItems {
			if item.UserID == userID {
				delete(st.cartItems, id)
			}
		}
		return nil
	})
}

type orderRepository struct {
	s *Store
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.s.do(ctx, func(st *state) error {
		if order.Status == "" {
			order.Status = models.OrderStatusPending
		}
		stamp(&order.BaseModel)
		for i := range order.Items {
			if order.Items[i].ID == uuid.Nil {
				order.Items[i].ID = uuid.New()
			}
			order.Items[i].OrderID = order.ID
			st.orderItems[order.Items[i].ID] = order.Items[i]
		}
		stored := *order
		stored.Items = nil
		st.orders[stored.ID] = stored
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var out models.Order
	err := r.s.do(ctx, func(st *state) error {
		order, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		order.Items = orderItemsOf(st, id)
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var out models.Order
	err := r.s.do(ctx, func(st *state) error {
		order, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	return r.s.do(ctx, func(st *state) error {
		order, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		order.Status = status
		order.UpdatedAt = time.Now()
		st.orders[id] = order
		return nil
	})
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	var out []models.Order
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, order := range st.orders {
			if filter.UserID != nil && order.UserID != *filter.UserID {
				continue
			}
			if filter.Status != "" && order.Status != filter.Status {
				continue
			}
			order.Items = orderItemsOf(st, order.ID)
			out = append(out, order)
		}
		total = int64(len(out))
		sortByCreated(out, func(o models.Order) time.Time { return o.CreatedAt }, filter.PaginationParams)
		out = paginate(out, filter.PaginationParams)
		return nil
	})
	return out, total, err
}

func orderItemsOf(st *state, orderID uuid.UUID) []models.OrderItem {
	items := []models.OrderItem{}
	for _, item := range st.orderItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return items
}
