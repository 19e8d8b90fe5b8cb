// internal/services/catalog_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/repository/memory"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	catalog   *CatalogService
	inventory *InventoryService
	rentals   *RentalService
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = newMemoryStore()
	suite.catalog = NewCatalogService(suite.store, nil, time.Second)
	suite.inventory = NewInventoryService(suite.store, time.Second)
	suite.rentals = NewRentalService(suite.store, RentalOptions{})
}

func (suite *CatalogServiceTestSuite) createProduct(name string) *models.Product {
	product, err := suite.catalog.CreateProduct(suite.ctx, &CreateProductRequest{
		Name:     name,
		Category: "indoor",
		Status:   "active",
	})
	suite.Require().NoError(err)
	return product
}

func (suite *CatalogServiceTestSuite) createVariant(productID uuid.UUID, sku string) *models.Variant {
	variant, err := suite.catalog.CreateVariant(suite.ctx, productID, &VariantRequest{
		SKU:             sku,
		Name:            sku,
		SalePrice:       price("1500"),
		RentPricePerDay: price("65.5"),
	})
	suite.Require().NoError(err)
	return variant
}

func (suite *CatalogServiceTestSuite) TestCreateProductSlugs() {
	first := suite.createProduct("P3 Indoor Rental Panel")
	suite.Equal("p3-indoor-rental-panel", first.Slug)
	suite.Equal(models.ProductStatusActive, first.Status)

	second := suite.createProduct("P3 Indoor Rental Panel")
	suite.NotEqual(first.Slug, second.Slug)
	suite.Contains(second.Slug, "p3-indoor-rental-panel-")
}

func (suite *CatalogServiceTestSuite) TestDraftProductsAreHiddenFromCustomers() {
	product, err := suite.catalog.CreateProduct(suite.ctx, &CreateProductRequest{Name: "Prototype Wall", Category: "outdoor"})
	suite.Require().NoError(err)
	suite.Equal(models.ProductStatusDraft, product.Status)

	_, err = suite.catalog.GetProduct(suite.ctx, product.ID, false)
	suite.IsType(&NotFoundError{}, err)

	got, err := suite.catalog.GetProduct(suite.ctx, product.ID, true)
	suite.Require().NoError(err)
	suite.Equal(product.ID, got.ID)
}

func (suite *CatalogServiceTestSuite) TestVariantPricesAndSKU() {
	product := suite.createProduct("Outdoor Cabinet")
	variant := suite.createVariant(product.ID, "OC-960")
	suite.True(variant.IsRentable)
	suite.Equal("65.50", variant.RentPricePerDay.StringFixed(2))

	_, err := suite.catalog.CreateVariant(suite.ctx, product.ID, &VariantRequest{
		SKU: "OC-960", Name: "dup", SalePrice: price("1"), RentPricePerDay: price("1"),
	})
	var conflict *ConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal("sku", conflict.Field)

	_, err = suite.catalog.CreateVariant(suite.ctx, product.ID, &VariantRequest{
		SKU: "OC-480", Name: "free", SalePrice: price("0"), RentPricePerDay: price("10"),
	})
	suite.IsType(&ValidationError{}, err)

	negative := price("-5")
	_, err = suite.catalog.UpdateVariant(suite.ctx, variant.ID, &UpdateVariantRequest{RentPricePerDay: &negative})
	suite.IsType(&ValidationError{}, err)

	_, err = suite.catalog.CreateVariant(suite.ctx, uuid.New(), &VariantRequest{
		SKU: "OC-1", Name: "orphan", SalePrice: price("1"), RentPricePerDay: price("1"),
	})
	suite.IsType(&NotFoundError{}, err)
}

func (suite *CatalogServiceTestSuite) TestUniqueSerialNumber() {
	product := suite.createProduct("Serial Check")
	variant := suite.createVariant(product.ID, "SC-1")

	_, err := suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "LED-0001"})
	suite.Require().NoError(err)

	_, err = suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "LED-0001"})
	var conflict *ConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal("serial_number", conflict.Field)

	units, total, err := suite.inventory.ListUnits(suite.ctx, repository.UnitFilter{VariantID: &variant.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal("LED-0001", units[0].SerialNumber)
}

func (suite *CatalogServiceTestSuite) TestUnitStatusMustBeKnown() {
	product := suite.createProduct("Status Check")
	variant := suite.createVariant(product.ID, "ST-1")

	_, err := suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "ST-0001", Status: "lost"})
	suite.IsType(&InvalidStatusError{}, err)

	unit, err := suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "ST-0002"})
	suite.Require().NoError(err)
	suite.Equal(models.UnitStatusAvailable, unit.Status)

	status, location := "maintenance", "Warehouse B"
	updated, err := suite.inventory.UpdateUnit(suite.ctx, unit.ID, &UpdateUnitRequest{Status: &status, Location: &location})
	suite.Require().NoError(err)
	suite.Equal(models.UnitStatusMaintenance, updated.Status)
	suite.Equal("Warehouse B", *updated.Location)

	_, _, err = suite.inventory.ListUnits(suite.ctx, repository.UnitFilter{Status: "lost"})
	suite.IsType(&InvalidStatusError{}, err)
}

func (suite *CatalogServiceTestSuite) TestAvailabilityValidation() {
	product := suite.createProduct("Availability Check")
	variant := suite.createVariant(product.ID, "AV-1")

	_, err := suite.inventory.ComputeAvailability(suite.ctx, variant.ID, day(2024, 3, 5), day(2024, 3, 1))
	suite.IsType(&ValidationError{}, err)

	_, err = suite.inventory.ComputeAvailability(suite.ctx, uuid.New(), day(2024, 3, 1), day(2024, 3, 5))
	suite.IsType(&NotFoundError{}, err)
}

func (suite *CatalogServiceTestSuite) TestDeleteProductCascades() {
	user := seedUser(suite.T(), suite.store, "buyer@example.com", models.UserRoleCustomer)
	product := suite.createProduct("Cascade Wall")
	variant := suite.createVariant(product.ID, "CW-1")
	unit, err := suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "CW-0001"})
	suite.Require().NoError(err)

	rental, err := suite.rentals.CreateRental(suite.ctx, &CreateRentalInput{
		UserID: user.ID, StartDate: day(2024, 4, 1), EndDate: day(2024, 4, 2),
		Items: []RentalItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.Carts().CreateItem(suite.ctx, &models.CartItem{UserID: user.ID, VariantID: variant.ID, Quantity: 1}))

	suite.Require().NoError(suite.catalog.DeleteProduct(suite.ctx, product.ID))

	_, err = suite.catalog.GetProduct(suite.ctx, product.ID, true)
	suite.IsType(&NotFoundError{}, err)
	_, err = suite.catalog.GetVariant(suite.ctx, variant.ID)
	suite.IsType(&NotFoundError{}, err)
	_, err = suite.inventory.GetUnit(suite.ctx, unit.ID)
	suite.IsType(&NotFoundError{}, err)

	items, err := suite.store.Rentals().ListItems(suite.ctx, rental.RentalID)
	suite.Require().NoError(err)
	suite.Empty(items)

	cart, err := suite.store.Carts().ListItems(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Empty(cart)
}

func (suite *CatalogServiceTestSuite) TestDeleteProductRefusedWhileUnitsAreOut() {
	user := seedUser(suite.T(), suite.store, "renter@example.com", models.UserRoleCustomer)
	product := suite.createProduct("Busy Wall")
	variant := suite.createVariant(product.ID, "BW-1")
	_, err := suite.inventory.CreateUnit(suite.ctx, &CreateUnitRequest{VariantID: variant.ID, SerialNumber: "BW-0001"})
	suite.Require().NoError(err)

	rental, err := suite.rentals.CreateRental(suite.ctx, &CreateRentalInput{
		UserID: user.ID, StartDate: day(2024, 4, 1), EndDate: day(2024, 4, 2),
		Items: []RentalItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)
	_, err = suite.rentals.TransitionRental(suite.ctx, rental.RentalID, "confirmed")
	suite.Require().NoError(err)
	_, err = suite.rentals.AssignUnits(suite.ctx, rental.RentalID, nil)
	suite.Require().NoError(err)

	err = suite.catalog.DeleteProduct(suite.ctx, product.ID)
	suite.IsType(&ConflictError{}, err)

	_, err = suite.catalog.GetVariant(suite.ctx, variant.ID)
	suite.NoError(err)
}

func (suite *CatalogServiceTestSuite) TestUploadWithoutStorage() {
	product := suite.createProduct("No Storage")
	_, err := suite.catalog.UploadProductImage(suite.ctx, product.ID, nil, nil)
	suite.Error(err)
}

func (suite *CatalogServiceTestSuite) TestListProductsByStatus() {
	suite.createProduct("Listed Panel")
	_, err := suite.catalog.CreateProduct(suite.ctx, &CreateProductRequest{Name: "Hidden Panel", Category: "indoor"})
	suite.Require().NoError(err)

	active := models.ProductStatusActive
	products, total, err := suite.catalog.ListProducts(suite.ctx, repository.ProductFilter{Status: &active})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal("Listed Panel", products[0].Name)

	_, total, err = suite.catalog.ListProducts(suite.ctx, repository.ProductFilter{})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
