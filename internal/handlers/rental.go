// internal/handlers/rental.go
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

type RentalHandler struct {
	rentalService *services.RentalService
}

type CreateRentalRequest struct {
	// UserID lets staff book on behalf of a customer.
	UserID          *uuid.UUID                 `json:"user_id,omitempty"`
	StartDate       string                     `json:"start_date" validate:"required,calendar_date"`
	EndDate         string                     `json:"end_date" validate:"required,calendar_date"`
	Items           []services.RentalItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *string                    `json:"delivery_address,omitempty" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignUnitsRequest struct {
	UnitIDs []uuid.UUID `json:"unit_ids,omitempty"`
}

func NewRentalHandler(rentalService *services.RentalService) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

// POST /rentals
func (h *RentalHandler) CreateRental(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req CreateRentalRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "start_date"), err.Error())
		return
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "end_date"), err.Error())
		return
	}

	userID := actor.UserID
	items := req.Items
	if actor.IsStaff() {
		if req.UserID != nil {
			userID = *req.UserID
		}
	} else {
		// Customers always book at the listed price.
		items = make([]services.RentalItemInput, len(req.Items))
		for i, item := range req.Items {
			item.UnitRentPricePerDay = nil
			items[i] = item
		}
	}

	result, err := h.rentalService.CreateRental(c.Request.Context(), &services.CreateRentalInput{
		UserID:          userID,
		StartDate:       start,
		EndDate:         end,
		Items:           items,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /rentals
func (h *RentalHandler) ListRentals(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rentals, total, err := h.rentalService.ListRentals(c.Request.Context(), actor, repository.RentalFilter{
		PaginationParams: params,
		Status:           models.RentalStatus(params.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(rentals, total, params))
}

// GET /rentals/:id
func (h *RentalHandler) GetRental(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	rental, err := h.rentalService.GetRental(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, rental)
}

// PUT /admin/rentals/:id/status
func (h *RentalHandler) TransitionRental(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	rental, err := h.rentalService.TransitionRental(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, rental)
}

// POST /admin/rentals/:id/assignments
func (h *RentalHandler) AssignUnits(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req AssignUnitsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	rental, err := h.rentalService.AssignUnits(c.Request.Context(), id, req.UnitIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, rental)
}
