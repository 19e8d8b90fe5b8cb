// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// POST /admin/units
func (h *InventoryHandler) CreateUnit(c *gin.Context) {
	var req services.CreateUnitRequest
	if !bindJSON(c, &req) {
		return
	}

	unit, err := h.inventoryService.CreateUnit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, unit)
}

// PUT /admin/units/:id
func (h *InventoryHandler) UpdateUnit(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUnitRequest
	if !bindJSON(c, &req) {
		return
	}

	unit, err := h.inventoryService.UpdateUnit(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, unit)
}

// GET /admin/units/:id
func (h *InventoryHandler) GetUnit(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	unit, err := h.inventoryService.GetUnit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, unit)
}

// GET /admin/units?variant_id=&status=
func (h *InventoryHandler) ListUnits(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := utils.GetPaginationParams(c)
	filter := repository.UnitFilter{
		PaginationParams: params,
		Status:           models.UnitStatus(params.Status),
	}

	if variantIDStr := c.Query("variant_id"); variantIDStr != "" {
		variantID, err := uuid.Parse(variantIDStr)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "variant_id"), nil)
			return
		}
		filter.VariantID = &variantID
	}

	units, total, err := h.inventoryService.ListUnits(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(units, total, params))
}
