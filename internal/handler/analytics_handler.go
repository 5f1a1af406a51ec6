package handler

import (
	"net/http"
	"time"

	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) Run(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// Export 与 Run 相同的请求体，返回 CSV
func (h *AnalyticsHandler) Export(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	sendCSV(c, service.AnalyticsFilename(res.Query.Title, res.GeneratedAt), service.ExportAnalyticsCSV(res))
}

func (h *AnalyticsHandler) run(c *gin.Context) (*service.AnalyticsResult, bool) {
	var q service.AnalyticsQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		badJSON(c)
		return nil, false
	}
	res, err := h.svc.Run(c.Request.Context(), &q, time.Now())
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return res, true
}
