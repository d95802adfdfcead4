package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/profiteer-io/profiteer-api/models"
	"github.com/profiteer-io/profiteer-api/services"
)

type AnalyzerHandler struct {
	Analyzer *services.AnalyzerService
}

func NewAnalyzerHandler(analyzer *services.AnalyzerService) *AnalyzerHandler {
	return &AnalyzerHandler{Analyzer: analyzer}
}

// Analyze handles POST /analyzer/analyze. Individual marketplace failures
// never surface here; only validation errors, the no-data outcome, and
// unexpected faults map to non-200 statuses.
func (h *AnalyzerHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	response, err := h.Analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No marketplace data found for this query",
				"query": req.Query,
			})
			return
		}
		log.Printf("[AnalyzerHandler] ❌ analyze failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Marketplaces handles GET /analyzer/marketplaces: the supported
// marketplace set and fee schedules.
func (h *AnalyzerHandler) Marketplaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"marketplaces": h.Analyzer.Marketplaces()})
}
