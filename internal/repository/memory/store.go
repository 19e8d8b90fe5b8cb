// internal/repository/memory/store.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// Store is an in-process repository.Store. A transaction holds the store mutex
// for its whole duration and works on a copy of the data that replaces the
// committed state only when the callback succeeds.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

type state struct {
	users       map[uuid.UUID]models.User
	products    map[uuid.UUID]models.Product
	variants    map[uuid.UUID]models.Variant
	units       map[uuid.UUID]models.InventoryUnit
	rentals     map[uuid.UUID]models.Rental
	rentalItems map[uuid.UUID]models.RentalItem
	assignments map[uuid.UUID]models.RentalUnitAssignment
	cartItems   map[uuid.UUID]models.CartItem
	orders      map[uuid.UUID]models.Order
	orderItems  map[uuid.UUID]models.OrderItem
	payments    map[uuid.UUID]models.Payment
	audit       []models.AuditLog
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &state{
			users:       map[uuid.UUID]models.User{},
			products:    map[uuid.UUID]models.Product{},
			variants:    map[uuid.UUID]models.Variant{},
			units:       map[uuid.UUID]models.InventoryUnit{},
			rentals:     map[uuid.UUID]models.Rental{},
			rentalItems: map[uuid.UUID]models.RentalItem{},
			assignments: map[uuid.UUID]models.RentalUnitAssignment{},
			cartItems:   map[uuid.UUID]models.CartItem{},
			orders:      map[uuid.UUID]models.Order{},
			orderItems:  map[uuid.UUID]models.OrderItem{},
			payments:    map[uuid.UUID]models.Payment{},
		},
	}
}

func (s *Store) Users() repository.UserRepository          { return &userRepository{s: s} }
func (s *Store) Catalog() repository.CatalogRepository     { return &catalogRepository{s: s} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepository{s: s} }
func (s *Store) Rentals() repository.RentalRepository      { return &rentalRepository{s: s} }
func (s *Store) Carts() repository.CartRepository          { return &cartRepository{s: s} }
func (s *Store) Orders() repository.OrderRepository        { return &orderRepository{s: s} }
func (s *Store) Payments() repository.PaymentRepository    { return &paymentRepository{s: s} }
func (s *Store) Audit() repository.AuditRepository         { return &auditRepository{s: s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	working := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: working, inTx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	*s.data = *working
	return nil
}

// AuditEntries returns a copy of the committed audit log.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.data.audit...)
}

func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func (st *state) clone() *state {
	return &state{
		users:       cloneMap(st.users),
		products:    cloneMap(st.products),
		variants:    cloneMap(st.variants),
		units:       cloneMap(st.units),
		rentals:     cloneMap(st.rentals),
		rentalItems: cloneMap(st.rentalItems),
		assignments: cloneMap(st.assignments),
		cartItems:   cloneMap(st.cartItems),
		orders:      cloneMap(st.orders),
		orderItems:  cloneMap(st.orderItems),
		payments:    cloneMap(st.payments),
		audit:       append([]models.AuditLog(nil), st.audit...),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stamp(base *models.BaseModel) {
	now := time.Now()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func copyStrings(a pq.StringArray) pq.StringArray {
	if a == nil {
		return nil
	}
	return append(pq.StringArray(nil), a...)
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// overlaps reports whether [a,b] and [c,d] intersect, compared at day granularity.
func overlaps(a, b, c, d time.Time) bool {
	return !day(a).After(day(d)) && !day(c).After(day(b))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortByCreated orders rows by creation time following the requested direction.
func sortByCreated[T any](rows []T, created func(T) time.Time, params utils.PaginationParams) {
	asc := params.Order == "asc"
	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return created(rows[i]).Before(created(rows[j]))
		}
		return created(rows[i]).After(created(rows[j]))
	})
}

func paginate[T any](rows []T, params utils.PaginationParams) []T {
	if params.Limit <= 0 {
		return rows
	}
	start := params.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + params.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
