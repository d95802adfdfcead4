package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/middleware"
	"github.com/profiteer-io/profiteer-api/routes"
	"github.com/profiteer-io/profiteer-api/scrapers"
	"github.com/profiteer-io/profiteer-api/services"
	"github.com/profiteer-io/profiteer-api/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	log.Printf("[config] Database: %s", utils.MaskDSN(cfg.DatabaseURL))
	log.Printf("[config] Redis:    %s", utils.MaskDSN(cfg.RedisURL))

	db, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	cache, err := services.NewCacheService(cfg)
	if err != nil {
		log.Fatal("Failed to configure Redis:", err)
	}
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		log.Printf("⚠️ Redis unreachable, scrapes will not be cached: %v", err)
	} else {
		log.Println("✅ Redis connected successfully")
	}

	registry := scrapers.NewRegistry(cfg)
	log.Printf("🔍 Marketplace adapters enabled: %d", registry.Len())

	items := services.NewItemService(db)
	prices := services.NewPriceTracker(db)

	recorder := services.NewRecorder(items, prices, 0)
	recorder.Start()
	defer recorder.Close()

	analyzer := services.NewAnalyzerService(cfg, registry, cache, recorder)

	go scheduleHistoryPruning(db)

	router := gin.Default()

	allowedOrigins := []string{
		cfg.FrontendURL,
		"https://profiteer.io",
		"https://www.profiteer.io",
	}

	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowedOrigins {
		log.Printf("   - %s", origin)
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		log.Printf("📨 %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.Next()
		duration := time.Since(start)
		log.Printf("✅ %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	})

	router.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateLimitWindow))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAnalyzerRoutes(v1, analyzer)
		routes.SetupTrendRoutes(v1, db)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func scheduleHistoryPruning(db *sql.DB) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	pruneStaleHistory(db)
	for range ticker.C {
		pruneStaleHistory(db)
	}
}

func pruneStaleHistory(db *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := db.ExecContext(ctx, `DELETE FROM price_history WHERE recorded_at < NOW() - INTERVAL '2 years'`)
	if err != nil {
		log.Printf("❌ History pruning failed: %v", err)
		return
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Printf("🧹 Pruned %d stale price observations", rows)
	}
}
