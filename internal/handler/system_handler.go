package handler

import (
	"net/http"
	"strconv"
	"time"

	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

// SystemHandler 健康检查、统计和审计日志
type SystemHandler struct {
	health *service.HealthService
	stats  *service.StatsService
	audit  *service.AuditLogger
}

func NewSystemHandler(health *service.HealthService, stats *service.StatsService, audit *service.AuditLogger) *SystemHandler {
	return &SystemHandler{health: health, stats: stats, audit: audit}
}

// AuditEventReq 前端上报的事件，用户取自令牌
type AuditEventReq struct {
	ActionType string         `json:"actionType" binding:"required"`
	Module     string         `json:"module"`
	Summary    string         `json:"summary"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	EntityCode string         `json:"entityCode"`
	Metadata   map[string]any `json:"metadata"`
	IsError    bool           `json:"isError"`
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.health.Check(c.Request.Context())})
}

func (h *SystemHandler) Stats(c *gin.Context) {
	st, err := h.stats.Get(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *SystemHandler) CreateAuditLog(c *gin.Context) {
	var req AuditEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actionType required"})
		return
	}
	row, err := h.audit.Write(c.Request.Context(), service.AuditEntry{
		ActionType: req.ActionType,
		Module:     req.Module,
		Summary:    req.Summary,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		EntityCode: req.EntityCode,
		Metadata:   req.Metadata,
		IsError:    req.IsError,
		Actor:      actorFrom(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": row.ID})
}

// ListAuditLogs ?limit= 默认 100，按时间倒序
func (h *SystemHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.audit.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
