package handler

import (
	"net/http"
	"strings"
	"time"

	"Member_Registry/internal/model"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	svc *service.MemberService
}

func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

type importMembersReq struct {
	Members []model.Member `json:"members"`
}

func (h *MemberHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MemberHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Create(c *gin.Context) {
	var m model.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		badJSON(c)
		return
	}
	created, err := h.svc.Create(c.Request.Context(), actorFrom(c), &m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *MemberHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	m, err := h.svc.Patch(c.Request.Context(), actorFrom(c), c.Param("id"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// Search 返回匹配的成员 id，前端据此过滤本地列表
func (h *MemberHandler) Search(c *gin.Context) {
	ids, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberIds": ids, "error": nil})
}

// Import JSON 请求体为 {members: [...]}，其他内容类型按 CSV 解析
func (h *MemberHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()
	actor := actorFrom(c)

	if c.ContentType() == gin.MIMEJSON {
		var req importMembersReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
		n, err := h.svc.Import(ctx, actor, req.Members)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "imported": n})
		return
	}

	data, err := readUpload(c)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	res, err := h.svc.ImportCSV(ctx, actor, string(data))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imported": res.Imported, "errors": res.Errors})
}

// Export ?fields=lastName,firstName&sort=name
func (h *MemberHandler) Export(c *gin.Context) {
	var fields []string
	if f := c.Query("fields"); f != "" {
		fields = strings.Split(f, ",")
	}
	out, err := h.svc.Export(c.Request.Context(), actorFrom(c), fields, c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendCSV(c, "membri_"+time.Now().Format("2006-01-02")+".csv", out)
}
