package handler

import (
	"net/http"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

// DictionaryHandler 活动类型、UM、下拉列表和导入模板
type DictionaryHandler struct {
	types  *service.ActivityTypeService
	units  *service.UnitService
	values *service.ValueListService
}

func NewDictionaryHandler(types *service.ActivityTypeService, units *service.UnitService, values *service.ValueListService) *DictionaryHandler {
	return &DictionaryHandler{types: types, units: units, values: values}
}

type valueListReq struct {
	Values []string `json:"values"`
}

func (h *DictionaryHandler) ListTypes(c *gin.Context) {
	list, err := h.types.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DictionaryHandler) CreateType(c *gin.Context) {
	var in service.ActivityTypeInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	t, err := h.types.Create(c.Request.Context(), actorFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *DictionaryHandler) PatchType(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	t, err := h.types.Patch(c.Request.Context(), actorFrom(c), id, body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *DictionaryHandler) DeleteType(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.types.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

// ImportTypes ?format=csv|json&mode=merge|replace；JSON 请求体自动识别
func (h *DictionaryHandler) ImportTypes(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	format := c.Query("format")
	if format == "" && c.ContentType() == gin.MIMEJSON {
		format = service.FormatJSON
	}
	res, err := h.types.Import(c.Request.Context(), actorFrom(c), data, format, c.Query("mode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DictionaryHandler) ExportTypes(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	out, err := h.types.Export(c.Request.Context(), format)
	if err != nil {
		writeError(c, err)
		return
	}
	if format == service.FormatJSON {
		c.Header("Content-Disposition", `attachment; filename="tipuri_activitati.json"`)
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
		return
	}
	sendCSV(c, "tipuri_activitati.csv", out)
}

func (h *DictionaryHandler) ListUnits(c *gin.Context) {
	list, err := h.units.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DictionaryHandler) CreateUnit(c *gin.Context) {
	var in service.UnitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, service.ErrUnitCodeRequired)
		return
	}
	u, err := h.units.Create(c.Request.Context(), actorFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *DictionaryHandler) PatchUnit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}
	u, err := h.units.Patch(c.Request.Context(), actorFrom(c), id, body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *DictionaryHandler) DeleteUnit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.units.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	success(c)
}

func (h *DictionaryHandler) GetValueList(c *gin.Context) {
	name := c.Param("list")
	values, err := h.values.Get(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": name, "values": values})
}

func (h *DictionaryHandler) ReplaceValueList(c *gin.Context) {
	var req valueListReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	name := c.Param("list")
	values, err := h.values.Replace(c.Request.Context(), actorFrom(c), name, req.Values)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": name, "values": values})
}

// Template 导入用的 CSV 模板
func (h *DictionaryHandler) Template(c *gin.Context) {
	kind := c.Param("kind")
	body, ok := exporter.Template(kind)
	if !ok {
		writeError(c, service.ErrNotFound)
		return
	}
	sendCSV(c, "template_"+kind+".csv", body)
}
