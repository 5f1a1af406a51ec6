package handler

import (
	"net/http"
	"time"

	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

type addParticipantsReq struct {
	MemberIDs []string `json:"memberIds"`
}

func (h *ActivityHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var in service.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c)
		return
	}
	a, err := h.svc.Create(c.Request.Context(), actorFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ActivityHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	a, err := h.svc.Patch(c.Request.Context(), actorFrom(c), c.Param("id"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

func (h *ActivityHandler) Archive(c *gin.Context) {
	if err := h.svc.Archive(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

func (h *ActivityHandler) Reactivate(c *gin.Context) {
	if err := h.svc.Reactivate(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

func (h *ActivityHandler) Import(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	res, err := h.svc.Import(c.Request.Context(), actorFrom(c), string(data))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Export ?withParticipants=true 时每个参与者一行
func (h *ActivityHandler) Export(c *gin.Context) {
	withParticipants := c.Query("withParticipants") == "true"
	out, err := h.svc.Export(c.Request.Context(), actorFrom(c), withParticipants)
	if err != nil {
		writeError(c, err)
		return
	}
	name := "activitati_"
	if withParticipants {
		name = "activitati_participanti_"
	}
	sendCSV(c, name+time.Now().Format("2006-01-02")+".csv", out)
}

func (h *ActivityHandler) AllParticipants(c *gin.Context) {
	list, err := h.svc.AllParticipants(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ActivityHandler) Participants(c *gin.Context) {
	list, err := h.svc.Participants(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ActivityHandler) AddParticipants(c *gin.Context) {
	var req addParticipantsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrMemberIDsRequired)
		return
	}
	added, err := h.svc.AddParticipants(c.Request.Context(), actorFrom(c), c.Param("id"), req.MemberIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "added": added})
}

func (h *ActivityHandler) UpdateParticipant(c *gin.Context) {
	var req service.ParticipantPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.svc.UpdateParticipant(c.Request.Context(), actorFrom(c), c.Param("id"), &req); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// RemoveParticipant ?memberId=
func (h *ActivityHandler) RemoveParticipant(c *gin.Context) {
	err := h.svc.RemoveParticipant(c.Request.Context(), actorFrom(c), c.Param("id"), c.Query("memberId"))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// ImportParticipants ?dryRun=true 只返回分类结果
func (h *ActivityHandler) ImportParticipants(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	ctx := c.Request.Context()
	if c.Query("dryRun") == "true" {
		preview, err := h.svc.PreviewParticipants(ctx, c.Param("id"), string(data))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
		return
	}
	res, err := h.svc.ImportParticipants(ctx, actorFrom(c), c.Param("id"), string(data))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ActivityHandler) ExportParticipants(c *gin.Context) {
	id := c.Param("id")
	out, err := h.svc.ExportParticipants(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sendCSV(c, "participanti_"+id+".csv", out)
}
