package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/festivalfund/festival-fund-go/config"
	models "github.com/festivalfund/festival-fund-go/models"
	stats "github.com/festivalfund/festival-fund-go/stats"
	utils "github.com/festivalfund/festival-fund-go/utils"
)

// ---------------- CREATE ----------------
func CreateFestival(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name           string  `json:"name" binding:"required"`
			Year           int     `json:"year" binding:"required"`
			OpeningBalance float64 `json:"openingBalance" binding:"gte=0"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("festivals")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// (name, year) must be unique
		count, err := col.CountDocuments(ctx, bson.M{"name": input.Name, "year": input.Year})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check festival uniqueness"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "festival with this name and year already exists"})
			return
		}

		now := time.Now()
		festival := models.Festival{
			ID:             primitive.NewObjectID(),
			Name:           input.Name,
			Year:           input.Year,
			OpeningBalance: input.OpeningBalance,
			Stats: models.StatsSnapshot{
				OpeningBalance: input.OpeningBalance,
				CurrentBalance: input.OpeningBalance,
				CategoryTotals: map[string]float64{},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}

		if _, err := col.InsertOne(ctx, festival); err != nil {
			// unique index backstop for concurrent creates
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "festival with this name and year already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create festival"})
			return
		}

		c.JSON(http.StatusCreated, festival)
	}
}

// ---------------- LIST ----------------
func ListFestivals(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("festivals")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			filter["name"] = bson.M{"$regex": q, "$options": "i"}
		}

		cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "year", Value: -1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch festivals"})
			return
		}

		var festivals []models.Festival
		if err := cursor.All(ctx, &festivals); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode festivals"})
			return
		}

		if len(festivals) == 0 {
			c.JSON(http.StatusOK, []models.Festival{})
			return
		}

		// --- Pick the most recently updated festival ---
		latest := festivals[0]
		for _, f := range festivals {
			if f.UpdatedAt.After(latest.UpdatedAt) {
				latest = f
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, festivals)
	}
}

// ---------------- GET ----------------
func GetFestival(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		var festival models.Festival
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("festivals").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&festival)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "festival not found"})
			return
		}

		etag := utils.GenerateETag(festival.ID, festival.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, festival)
	}
}

// ---------------- UPDATE ----------------
func UpdateFestival(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		var input struct {
			Name           string   `json:"name"`
			Year           *int     `json:"year"`
			OpeningBalance *float64 `json:"openingBalance"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("festivals")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Festival
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "festival not found"})
			return
		}

		update := bson.M{"updated_at": time.Now()}

		name := existing.Name
		year := existing.Year
		if input.Name != "" && input.Name != existing.Name {
			name = input.Name
			update["name"] = input.Name
		}
		if input.Year != nil && *input.Year != existing.Year {
			year = *input.Year
			update["year"] = *input.Year
		}

		// re-check uniqueness only when name or year change, skipping our own record
		if name != existing.Name || year != existing.Year {
			count, err := col.CountDocuments(ctx, bson.M{
				"name": name,
				"year": year,
				"_id":  bson.M{"$ne": oid},
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check festival uniqueness"})
				return
			}
			if count > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": "festival with this name and year already exists"})
				return
			}
		}

		// Opening-balance shortcut: rebalance against the cached totals
		// instead of re-running the full aggregation. The other snapshot
		// fields are carried over untouched.
		if input.OpeningBalance != nil && *input.OpeningBalance != existing.Stats.OpeningBalance {
			newStats := existing.Stats
			newStats.OpeningBalance = *input.OpeningBalance
			newStats.CurrentBalance = stats.CurrentBalance(
				*input.OpeningBalance,
				existing.Stats.TotalCollected,
				existing.Stats.TotalExpenses,
			)
			update["openingBalance"] = *input.OpeningBalance
			update["stats"] = newStats
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update festival"})
			return
		}

		var updated models.Festival
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated festival"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteFestival(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("festivals")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// contributions and expenses are intentionally not cascaded; the
		// ledger keeps its history even when the festival record goes.
		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete festival"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "festival not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "festival deleted", "id": oid.Hex()})
	}
}
