package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/profiteer-io/profiteer-api/services"
)

type TrendsHandler struct {
	Items  *services.ItemService
	Prices *services.PriceTracker
}

func NewTrendsHandler(items *services.ItemService, prices *services.PriceTracker) *TrendsHandler {
	return &TrendsHandler{Items: items, Prices: prices}
}

// GetTrends handles GET /trends/:item_id?period=30d.
func (h *TrendsHandler) GetTrends(c *gin.Context) {
	itemID := c.Param("item_id")
	if _, err := uuid.Parse(itemID); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid item id"})
		return
	}

	item, err := h.Items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		log.Printf("[TrendsHandler] ❌ item lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load item"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	period := c.DefaultQuery("period", "30d")
	trends, err := h.Prices.GetTrends(c.Request.Context(), item, period)
	if err != nil {
		log.Printf("[TrendsHandler] ❌ trends query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trends"})
		return
	}

	c.JSON(http.StatusOK, trends)
}

// SearchItems handles GET /trends/search?q=.
func (h *TrendsHandler) SearchItems(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	items, err := h.Items.Search(c.Request.Context(), query, 10)
	if err != nil {
		log.Printf("[TrendsHandler] ❌ item search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
