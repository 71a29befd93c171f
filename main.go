package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/festivalfund/festival-fund-go/config"
	models "github.com/festivalfund/festival-fund-go/models"
	routes "github.com/festivalfund/festival-fund-go/routes"
)

func main() {
	cfg := config.Load()
	log := cfg.Log

	client, err := config.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("could not connect to mongodb")
	}
	cfg.MongoClient = client

	if err := config.EnsureIndexes(client, cfg.DBName); err != nil {
		log.WithError(err).Fatal("could not create indexes")
	}

	models.RegisterValidators()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Festival Fund API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// rendered reports and exports
	r.Static("/reports", cfg.ReportDir)

	routes.SetupRoutes(r, cfg)

	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
