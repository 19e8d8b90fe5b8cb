// internal/repository/memory/catalog.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type catalogRepository struct {
	s *Store
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.s.do(ctx, func(st *state) error {
		if slugTaken(st, product.Slug, uuid.Nil) {
			return &repository.DuplicateError{Field: "slug"}
		}
		stamp(&product.BaseModel)
		st.products[product.ID] = storedProduct(product)
		return nil
	})
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return repository.ErrNotFound
		}
		if slugTaken(st, product.Slug, product.ID) {
			return &repository.DuplicateError{Field: "slug"}
		}
		product.UpdatedAt = time.Now()
		st.products[product.ID] = storedProduct(product)
		return nil
	})
}

func (r *catalogRepository) GetProduct(ctx context.Context, id uuid.UUID, withVariants bool) (*models.Product, error) {
	var out models.Product
	err := r.s.do(ctx, func(st *state) error {
		product, ok := st.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = loadedProduct(st, product, withVariants)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	var out []models.Product
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, product := range st.products {
			if filter.Status != nil && product.Status != *filter.Status {
				continue
			}
			if filter.Category != "" && product.Category != filter.Category {
				continue
			}
			if filter.Search != "" && !containsFold(product.Name, filter.Search) && !containsFold(product.Description, filter.Search) {
				continue
			}
			out = append(out, loadedProduct(st, product, true))
		}
		total = int64(len(out))
		sortByCreated(out, func(p models.Product) time.Time { return p.CreatedAt }, filter.PaginationParams)
		out = paginate(out, filter.PaginationParams)
		return nil
	})
	return out, total, err
}

func (r *catalogRepository) DeleteProductCascade(ctx context.Context, id uuid.UUID) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return repository.ErrNotFound
		}

		variantIDs := map[uuid.UUID]bool{}
		for vid, variant := range st.variants {
			if variant.ProductID == id {
				variantIDs[vid] = true
			}
		}
		unitIDs := map[uuid.UUID]bool{}
		for uid, unit := range st.units {
			if variantIDs[unit.VariantID] {
				unitIDs[uid] = true
			}
		}

		for aid, assignment := range st.assignments {
			if unitIDs[assignment.InventoryUnitID] {
				delete(st.assignments, aid)
			}
		}
		for iid, item := range st.rentalItems {
			if variantIDs[item.VariantID] {
				delete(st.rentalItems, iid)
			}
		}
		for cid, item := range st.cartItems {
			if variantIDs[item.VariantID] {
				delete(st.cartItems, cid)
			}
		}
		for uid := range unitIDs {
			delete(st.units, uid)
		}
		for vid := range variantIDs {
			delete(st.variants, vid)
		}
		delete(st.products, id)
		return nil
	})
}

func (r *catalogRepository) CreateVariant(ctx context.Context, variant *models.Variant) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.products[variant.ProductID]; !ok {
			return fmt.Errorf("database error: product %s does not exist", variant.ProductID)
		}
		if skuTaken(st, variant.SKU, uuid.Nil) {
			return &repository.DuplicateError{Field: "sku"}
		}
		stamp(&variant.BaseModel)
		v := *variant
		v.Units = nil
		st.variants[v.ID] = v
		return nil
	})
}

func (r *catalogRepository) UpdateVariant(ctx context.Context, variant *models.Variant) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.variants[variant.ID]; !ok {
			return repository.ErrNotFound
		}
		if skuTaken(st, variant.SKU, variant.ID) {
			return &repository.DuplicateError{Field: "sku"}
		}
		variant.UpdatedAt = time.Now()
		v := *variant
		v.Units = nil
		st.variants[v.ID] = v
		return nil
	})
}

func (r *catalogRepository) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var out models.Variant
	err := r.s.do(ctx, func(st *state) error {
		variant, ok := st.variants[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = variant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepository) LockVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	return r.GetVariant(ctx, id)
}

func storedProduct(product *models.Product) models.Product {
	p := *product
	p.Images = copyStrings(product.Images)
	p.Tags = copyStrings(product.Tags)
	p.Variants = nil
	return p
}

func loadedProduct(st *state, product models.Product, withVariants bool) models.Product {
	product.Images = copyStrings(product.Images)
	product.Tags = copyStrings(product.Tags)
	if !withVariants {
		return product
	}

	product.Variants = []models.Variant{}
	for _, variant := range st.variants {
		if variant.ProductID == product.ID {
			product.Variants = append(product.Variants, variant)
		}
	}
	sort.SliceStable(product.Variants, func(i, j int) bool {
		return product.Variants[i].CreatedAt.Before(product.Variants[j].CreatedAt)
	})
	return product
}

func slugTaken(st *state, slug string, except uuid.UUID) bool {
	for id, product := range st.products {
		if id != except && product.Slug == slug {
			return true
		}
	}
	return false
}

func skuTaken(st *state, sku string, except uuid.UUID) bool {
	for id, variant := range st.variants {
		if id != except && variant.SKU == sku {
			return true
		}
	}
	return false
}
