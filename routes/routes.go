package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/profiteer-io/profiteer-api/handlers"
	"github.com/profiteer-io/profiteer-api/services"
)

// SetupAnalyzerRoutes sets up the profitability analyzer routes.
func SetupAnalyzerRoutes(rg *gin.RouterGroup, analyzer *services.AnalyzerService) {
	h := handlers.NewAnalyzerHandler(analyzer)

	rg.POST("/analyzer/analyze", h.Analyze)
	rg.GET("/analyzer/marketplaces", h.Marketplaces)
}

// SetupTrendRoutes sets up price-history trend routes.
func SetupTrendRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewTrendsHandler(services.NewItemService(db), services.NewPriceTracker(db))

	rg.GET("/trends/search", h.SearchItems)
	rg.GET("/trends/:item_id", h.GetTrends)
}
