package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/festivalfund/festival-fund-go/config"
	models "github.com/festivalfund/festival-fund-go/models"
)

// ---------------- CREATE ----------------
func CreateContributor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name        string `json:"name" binding:"required"`
			PhoneNumber string `json:"phoneNumber"`
			Address     string `json:"address"`
			Category    string `json:"category" binding:"omitempty,contributor_category"`
			FestivalID  string `json:"festivalId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		festivalID, err := primitive.ObjectIDFromHex(input.FestivalID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var festival models.Festival
		if err := db.Collection("festivals").FindOne(ctx, bson.M{"_id": festivalID}).Decode(&festival); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "festival not found"})
			return
		}

		category := input.Category
		if category == "" {
			category = models.ContributorParent
		}

		now := time.Now()
		contributor := models.Contributor{
			ID:          primitive.NewObjectID(),
			Name:        input.Name,
			PhoneNumber: input.PhoneNumber,
			Address:     input.Address,
			Category:    category,
			FestivalID:  festivalID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if _, err := db.Collection("contributors").InsertOne(ctx, contributor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create contributor"})
			return
		}

		c.JSON(http.StatusCreated, contributor)
	}
}

// ---------------- LIST ----------------
func ListContributors(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("contributors")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if festivalID := c.Query("festivalId"); festivalID != "" {
			if oid, err := primitive.ObjectIDFromHex(festivalID); err == nil {
				filter["festivalId"] = oid
			}
		}
		if category := c.Query("category"); category != "" {
			filter["category"] = category
		}
		if search := c.Query("search"); search != "" {
			regex := bson.M{"$regex": search, "$options": "i"}
			filter["$or"] = []bson.M{{"name": regex}, {"address": regex}}
		}

		page := parsePageParams(c)

		total, err := col.CountDocuments(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count contributors"})
			return
		}

		opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
		if page.Enabled {
			opts.SetSkip(page.Skip()).SetLimit(page.Limit)
		}

		cursor, err := col.Find(ctx, filter, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch contributors"})
			return
		}

		contributors := []models.Contributor{}
		if err := cursor.All(ctx, &contributors); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode contributors"})
			return
		}

		resp := page.metadata(total)
		resp["contributors"] = contributors
		c.JSON(http.StatusOK, resp)
	}
}

// ---------------- GET ----------------
func GetContributor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contributor id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var contributor models.Contributor
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("contributors").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&contributor)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contributor not found"})
			return
		}

		c.JSON(http.StatusOK, contributor)
	}
}

// ---------------- UPDATE ----------------
func UpdateContributor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contributor id"})
			return
		}

		var input struct {
			Name        string  `json:"name"`
			PhoneNumber *string `json:"phoneNumber"`
			Address     *string `json:"address"`
			Category    string  `json:"category" binding:"omitempty,contributor_category"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Name != "" {
			update["name"] = input.Name
		}
		if input.PhoneNumber != nil {
			update["phoneNumber"] = *input.PhoneNumber
		}
		if input.Address != nil {
			update["address"] = *input.Address
		}
		if input.Category != "" {
			update["category"] = input.Category
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("contributors")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update contributor"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "contributor not found"})
			return
		}

		var updated models.Contributor
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated contributor"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteContributor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contributor id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("contributors")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete contributor"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "contributor not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "contributor deleted", "id": oid.Hex()})
	}
}
