package device

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/global-vision-developer/adminpro-api/internal/handler"
	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/repository"
)

type Handler struct {
	repo repository.RecipientRepository
}

func NewHandler(repo repository.RecipientRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.PUT("/:id/devices", h.RegisterDevice)
	}
}

// RegisterDevice upserts a push token for an end-user so the resolver sees it
// on the next dispatch.
func (h *Handler) RegisterDevice(c *gin.Context) {
	userID := c.Param("id")

	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	device := &model.Device{
		UserID:    userID,
		Token:     req.Token,
		Platform:  req.Platform,
		CreatedAt: time.Now(),
	}
	if err := h.repo.UpsertDevice(c.Request.Context(), device); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(device))
}
