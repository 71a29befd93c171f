package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	utils "github.com/festivalfund/festival-fund-go/utils"
)

// Config carries every dependency the handlers need. It is built once in
// main and passed into the handler factories; nothing in the service
// reads process-global state after startup.
type Config struct {
	MongoClient *mongo.Client
	DBName      string

	Port           string
	AllowedOrigins []string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	// ReportDir is where rendered reports and exports are written; it is
	// served statically under /reports.
	ReportDir string

	// Notifier sends contributor WhatsApp messages; constructed in main
	// and injected here so handlers never reach for a global client.
	Notifier *utils.WhatsAppClient

	Log *logrus.Logger
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}

	cfg := &Config{
		DBName:             getEnv("DB_NAME", "Festivalfund"),
		Port:               getEnv("PORT", "8080"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		ReportDir:          getEnv("REPORT_DIR", "public/reports"),
		Notifier:           utils.NewWhatsAppClientFromEnv(log),
		Log:                log,
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
