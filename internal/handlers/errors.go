// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognised is a 500.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var (
		notFound      *services.NotFoundError
		invalidStatus *services.InvalidStatusError
		validation    *services.ValidationError
		capacity      *services.CapacityError
		conflict      *services.ConflictError
		forbidden     *services.ForbiddenError
	)

	switch {
	case errors.As(err, &notFound):
		utils.NotFoundResponse(c, notFound.Resource)
	case errors.As(err, &invalidStatus):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_STATUS", i18n.T(lang, i18n.KeyInvalidStatus, invalidStatus.Status), gin.H{
			"status": invalidStatus.Status,
			"from":   invalidStatus.From,
		})
	case errors.As(err, &validation):
		utils.ValidationErrorResponse(c, []utils.ValidationError{{
			Field:   validation.Field,
			Tag:     "invalid",
			Message: validation.Reason,
		}})
	case errors.As(err, &capacity):
		utils.ConflictResponse(c, "INSUFFICIENT_CAPACITY", i18n.T(lang, i18n.KeyInsufficientStock), gin.H{
			"variant_id": capacity.VariantID,
			"requested":  capacity.Requested,
			"available":  capacity.Available,
		})
	case errors.As(err, &conflict):
		utils.ConflictResponse(c, "CONFLICT", conflictMessage(lang, conflict), gin.H{
			"resource": conflict.Resource,
			"field":    conflict.Field,
		})
	case errors.As(err, &forbidden):
		utils.ForbiddenResponse(c, forbidden.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Warn("Store call timed out")
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "TIMEOUT", err.Error(), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

func conflictMessage(lang string, err *services.ConflictError) string {
	if err.Resource == "inventory_unit" && err.Field == "serial_number" {
		return i18n.T(lang, i18n.KeyUnitSerialExists)
	}
	if err.Reason != "" {
		return err.Error()
	}
	return i18n.T(lang, i18n.KeyConflict)
}

// bindJSON decodes and validates the request body, writing the 400 itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// actorFromContext reads the caller set by the auth middleware.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return services.Actor{}, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return services.Actor{}, false
	}

	role, _ := utils.GetUserRoleFromContext(c)
	return services.Actor{UserID: userID, Role: models.UserRole(role)}, true
}
