// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

// ImageUploader stores product images and returns their public location.
type ImageUploader interface {
	UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error)
	GetDefaultUploadOptions(category string) UploadOptions
}

type CatalogService struct {
	store   repository.Store
	images  ImageUploader
	timeout time.Duration
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"max=10000"`
	Category    string   `json:"category" validate:"required,max=100"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Tags        []string `json:"tags,omitempty"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
}

type VariantRequest struct {
	SKU             string          `json:"sku" validate:"required,max=100"`
	Name            string          `json:"name" validate:"required,max=255"`
	PixelPitchMM    decimal.Decimal `json:"pixel_pitch_mm"`
	CabinetSize     string          `json:"cabinet_size" validate:"max=50"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	RentPricePerDay decimal.Decimal `json:"rent_price_per_day"`
	IsRentable      *bool           `json:"is_rentable,omitempty"`
}

type UpdateVariantRequest struct {
	SKU             *string          `json:"sku,omitempty" validate:"omitempty,max=100"`
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	PixelPitchMM    *decimal.Decimal `json:"pixel_pitch_mm,omitempty"`
	CabinetSize     *string          `json:"cabinet_size,omitempty" validate:"omitempty,max=50"`
	SalePrice       *decimal.Decimal `json:"sale_price,omitempty"`
	RentPricePerDay *decimal.Decimal `json:"rent_price_per_day,omitempty"`
	IsRentable      *bool            `json:"is_rentable,omitempty"`
}

func NewCatalogService(store repository.Store, images ImageUploader, timeout time.Duration) *CatalogService {
	return &CatalogService{
		store:   store,
		images:  images,
		timeout: timeout,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	status := models.ProductStatusDraft
	if req.Status != "" {
		status = models.ProductStatus(req.Status)
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Images:      pq.StringArray(req.Images),
		Tags:        pq.StringArray(req.Tags),
		Status:      status,
	}
	if product.Slug == "" {
		return nil, &ValidationError{Field: "name", Reason: "must contain letters or digits"}
	}

	err := s.store.Catalog().CreateProduct(ctx, product)
	if errors.Is(err, repository.ErrDuplicate) {
		// Same name as an existing product: keep the slug readable and make it unique.
		product.ID = uuid.Nil
		product.Slug = fmt.Sprintf("%s-%s", slug.Make(req.Name), uuid.NewString()[:6])
		err = s.store.Catalog().CreateProduct(ctx, product)
	}
	if err != nil {
		return nil, translate(err, "product", product.Slug)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product created")

	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	product, err := s.store.Catalog().GetProduct(ctx, id, false)
	if err != nil {
		return nil, translate(err, "product", id.String())
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Images != nil {
		product.Images = pq.StringArray(req.Images)
	}
	if req.Tags != nil {
		product.Tags = pq.StringArray(req.Tags)
	}
	if req.Status != nil {
		product.Status = models.ProductStatus(*req.Status)
	}

	if err := s.store.Catalog().UpdateProduct(ctx, product); err != nil {
		return nil, translate(err, "product", id.String())
	}

	updated, err := s.store.Catalog().GetProduct(ctx, id, true)
	if err != nil {
		return nil, translate(err, "product", id.String())
	}
	return updated, nil
}

// GetProduct returns the product with its variants. Non-active products are only visible to staff.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	product, err := s.store.Catalog().GetProduct(ctx, id, true)
	if err != nil {
		return nil, translate(err, "product", id.String())
	}
	if product.Status != models.ProductStatusActive && !includeHidden {
		return nil, &NotFoundError{Resource: "product", ID: id.String()}
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	products, total, err := s.store.Catalog().ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// DeleteProduct removes a product together with its variants, their inventory units
// and everything that references them. It refuses while any unit is held by a
// confirmed or active rental.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Catalog().GetProduct(ctx, id, false); err != nil {
			return translate(err, "product", id.String())
		}

		committed, err := tx.Inventory().CountCommittedForProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check committed units: %w", err)
		}
		if committed > 0 {
			return &ConflictError{Resource: "product", Reason: fmt.Sprintf("%d units are on confirmed or active rentals", committed)}
		}

		if err := tx.Catalog().DeleteProductCascade(ctx, id); err != nil {
			return translate(err, "product", id.String())
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("product_id", id).Info("Product deleted")
	return nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID uuid.UUID, req *VariantRequest) (*models.Variant, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	if err := validatePrices(req.SalePrice, req.RentPricePerDay); err != nil {
		return nil, err
	}

	if _, err := s.store.Catalog().GetProduct(ctx, productID, false); err != nil {
		return nil, translate(err, "product", productID.String())
	}

	rentable := true
	if req.IsRentable != nil {
		rentable = *req.IsRentable
	}

	variant := &models.Variant{
		ProductID:       productID,
		SKU:             strings.TrimSpace(req.SKU),
		Name:            req.Name,
		PixelPitchMM:    req.PixelPitchMM,
		CabinetSize:     req.CabinetSize,
		SalePrice:       req.SalePrice.Round(2),
		RentPricePerDay: req.RentPricePerDay.Round(2),
		IsRentable:      rentable,
	}
	if err := s.store.Catalog().CreateVariant(ctx, variant); err != nil {
		return nil, translate(err, "variant", variant.SKU)
	}

	return variant, nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, id uuid.UUID, req *UpdateVariantRequest) (*models.Variant, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	variant, err := s.store.Catalog().GetVariant(ctx, id)
	if err != nil {
		return nil, translate(err, "variant", id.String())
	}

	if req.SKU != nil {
		variant.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.PixelPitchMM != nil {
		variant.PixelPitchMM = *req.PixelPitchMM
	}
	if req.CabinetSize != nil {
		variant.CabinetSize = *req.CabinetSize
	}
	if req.SalePrice != nil {
		variant.SalePrice = req.SalePrice.Round(2)
	}
	if req.RentPricePerDay != nil {
		variant.RentPricePerDay = req.RentPricePerDay.Round(2)
	}
	if req.IsRentable != nil {
		variant.IsRentable = *req.IsRentable
	}

	if err := validatePrices(variant.SalePrice, variant.RentPricePerDay); err != nil {
		return nil, err
	}

	if err := s.store.Catalog().UpdateVariant(ctx, variant); err != nil {
		return nil, translate(err, "variant", id.String())
	}
	return variant, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	variant, err := s.store.Catalog().GetVariant(ctx, id)
	if err != nil {
		return nil, translate(err, "variant", id.String())
	}
	return variant, nil
}

// UploadProductImage stores the file and appends its URL to the product's images.
func (s *CatalogService) UploadProductImage(ctx context.Context, productID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	product, err := s.store.Catalog().GetProduct(ctx, productID, false)
	if err != nil {
		return nil, translate(err, "product", productID.String())
	}

	result, err := s.images.UploadFile(ctx, file, header, s.images.GetDefaultUploadOptions("products"))
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: err.Error()}
	}

	product.Images = append(product.Images, result.URL)
	if err := s.store.Catalog().UpdateProduct(ctx, product); err != nil {
		return nil, translate(err, "product", productID.String())
	}

	return product, nil
}

func validatePrices(sale, rent decimal.Decimal) error {
	if !sale.IsPositive() {
		return &ValidationError{Field: "sale_price", Reason: "must be positive"}
	}
	if !rent.IsPositive() {
		return &ValidationError{Field: "rent_price_per_day", Reason: "must be positive"}
	}
	return nil
}
