package handler

import (
	"encoding/json"
	"net/http"

	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler WhatsApp 群组和成员关系
type GroupHandler struct {
	svc *service.GroupService
}

func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GroupHandler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Create(c *gin.Context) {
	var in service.GroupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, service.ErrGroupNameRequired)
		return
	}
	g, err := h.svc.Create(c.Request.Context(), actorFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	g, err := h.svc.Patch(c.Request.Context(), actorFrom(c), c.Param("id"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// ImportMembers ?mode=merge|replace
func (h *GroupHandler) ImportMembers(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	res, err := h.svc.ImportMembers(c.Request.Context(), actorFrom(c), c.Param("id"), string(data), c.Query("mode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GroupHandler) ExportMembers(c *gin.Context) {
	id := c.Param("id")
	out, err := h.svc.ExportMembers(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sendCSV(c, "grup_"+id+"_membri.csv", out)
}

func (h *GroupHandler) Memberships(c *gin.Context) {
	list, err := h.svc.Memberships(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GroupHandler) Join(c *gin.Context) {
	var req service.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrBadRequest)
		return
	}
	if err := h.svc.Join(c.Request.Context(), actorFrom(c), &req); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// Leave ?memberId=&groupId= 或 ?bulkGroupId=&bulkMemberIds=["id",...]
func (h *GroupHandler) Leave(c *gin.Context) {
	var bulk []string
	if raw := c.Query("bulkMemberIds"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &bulk); err != nil {
			writeError(c, service.ErrBadRequest)
			return
		}
	}
	err := h.svc.Leave(c.Request.Context(), actorFrom(c), c.Query("memberId"), c.Query("groupId"), c.Query("bulkGroupId"), bulk)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c)
}
