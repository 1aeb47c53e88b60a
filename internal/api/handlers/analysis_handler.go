package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sheetlens/internal/chart"
	"github.com/yoockh/sheetlens/internal/services"
)

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

func (h *AnalysisHandler) Dataset(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	_, ds, err := h.svc.Dataset(c.Request.Context(), caller, c.Param("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":        ds.Columns,
		"numericColumns": ds.NumericColumns(),
		"rows":           ds.Rows,
		"count":          len(ds.Rows),
		"status":         http.StatusOK,
	})
}

type ChartRequest struct {
	XAxis     string `json:"xAxis"`
	YAxis     string `json:"yAxis"`
	ChartType string `json:"chartType"`
}

func (h *AnalysisHandler) Chart(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req ChartRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, "AnalysisHandler.Chart", err)
		return
	}

	cfg, err := h.svc.Chart(c.Request.Context(), caller, c.Param("upload_id"), chart.Selection{
		XAxis: req.XAxis,
		YAxis: req.YAxis,
		Type:  chart.Type(req.ChartType),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chart": cfg, "status": http.StatusOK})
}

func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.svc.List(c.Request.Context(), caller, c.Param("upload_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": rows,
		"count":    len(rows),
		"status":   http.StatusOK,
	})
}
