package handler

import (
	"net/http"

	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler /admin/users
type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) Create(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, service.ErrAdminFieldsMissing)
		return
	}
	user, err := h.svc.Create(c.Request.Context(), actorFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AdminHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	user, err := h.svc.Patch(c.Request.Context(), actorFrom(c), c.Param("id"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}
