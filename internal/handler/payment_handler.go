package handler

import (
	"net/http"

	"Member_Registry/internal/model"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// List ?memberId= 只看某个成员
func (h *PaymentHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("memberId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var p model.Payment
	if err := c.ShouldBindJSON(&p); err != nil {
		badJSON(c)
		return
	}
	created, err := h.svc.Create(c.Request.Context(), actorFrom(c), &p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// Patch 路径里的 id 是付款编号
func (h *PaymentHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	p, err := h.svc.Patch(c.Request.Context(), actorFrom(c), c.Param("id"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}
