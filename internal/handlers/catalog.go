// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type CatalogHandler struct {
	catalogService   *services.CatalogService
	inventoryService *services.InventoryService
}

func NewCatalogHandler(catalogService *services.CatalogService, inventoryService *services.InventoryService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:   catalogService,
		inventoryService: inventoryService,
	}
}

// GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	active := models.ProductStatusActive

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), repository.ProductFilter{
		PaginationParams: params,
		Status:           &active,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /admin/products
func (h *CatalogHandler) AdminListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.ProductFilter{PaginationParams: params}
	if params.Status != "" {
		status := models.ProductStatus(params.Status)
		filter.Status = &status
	}

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id, isStaff(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /variants/:id
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	variant, err := h.catalogService.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, variant)
}

// GET /variants/:id/availability?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *CatalogHandler) GetAvailability(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	start, err := utils.ParseDate(c.Query("start"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "start"), err.Error())
		return
	}
	end, err := utils.ParseDate(c.Query("end"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "end"), err.Error())
		return
	}

	availability, err := h.inventoryService.ComputeAvailability(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, availability)
}

// POST /admin/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /admin/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /admin/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyProductDeleted)})
}

// POST /admin/products/:id/variants
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.VariantRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.CreateVariant(c.Request.Context(), productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, variant)
}

// PUT /admin/variants/:id
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateVariantRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, variant)
}

// POST /admin/products/:id/images
func (h *CatalogHandler) UploadProductImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "file"), nil)
		return
	}
	defer file.Close()

	product, err := h.catalogService.UploadProductImage(c.Request.Context(), id, file, header)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

func isStaff(c *gin.Context) bool {
	role, _ := utils.GetUserRoleFromContext(c)
	return role == string(models.UserRoleStaff) || role == string(models.UserRoleAdmin)
}
