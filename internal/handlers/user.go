// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer staff admin"`
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /admin/users?role=&status=
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.UserFilter{
		PaginationParams: params,
		Role:             models.UserRole(c.Query("role")),
		Status:           models.UserStatus(params.Status),
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// POST /admin/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, user)
}

// PUT /admin/users/:id/status
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// PUT /admin/users/:id/role
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserRole(c.Request.Context(), actor, id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}
