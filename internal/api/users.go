package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/models"
)

// UserHandler serves user registration and lookup.
type UserHandler struct {
	svc UserService
	log *logrus.Logger
}

// NewUserHandler creates a UserHandler with the given service and logger.
func NewUserHandler(svc UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	users, hasMore, err := h.svc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, h.log, "listing users", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "has_more": hasMore})
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "getting user", err)

		return
	}

	c.JSON(http.StatusOK, user)
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "creating user", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "user.create", "user_id": user.ID}).Info("audit")

	c.JSON(http.StatusCreated, user)
}
