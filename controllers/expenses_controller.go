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
	stats "github.com/festivalfund/festival-fund-go/stats"
)

// ---------------- CREATE ----------------
func CreateExpense(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FestivalID  string  `json:"festivalId" binding:"required"`
			Category    string  `json:"category" binding:"required,expense_category"`
			Amount      float64 `json:"amount" binding:"required,gt=0"`
			Description string  `json:"description"`
			Date        *string `json:"date"`
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

		date, ok := parseDate(input.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
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

		now := time.Now()
		expense := models.Expense{
			ID:          primitive.NewObjectID(),
			FestivalID:  festivalID,
			Category:    input.Category,
			Amount:      input.Amount,
			Description: input.Description,
			Date:        date,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if _, err := db.Collection("expenses").InsertOne(ctx, expense); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create expense"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, festivalID)

		c.JSON(http.StatusCreated, gin.H{
			"expense":       expense,
			"festivalStats": snapshot,
		})
	}
}

// ---------------- LIST ----------------
func ListExpenses(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("expenses")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if festivalID := c.Query("festivalId"); festivalID != "" {
			if oid, err := primitive.ObjectIDFromHex(festivalID); err == nil {
				filter["festivalId"] = oid
			}
		}
		if category := c.Query("category"); category != "" && category != "All" {
			filter["category"] = category
		}
		if search := c.Query("search"); search != "" {
			regex := bson.M{"$regex": search, "$options": "i"}
			filter["$or"] = []bson.M{{"category": regex}, {"description": regex}}
		}
		if start, ok := dateRangeStart(c.Query("dateRange"), time.Now()); ok {
			filter["date"] = bson.M{"$gte": start}
		}

		page := parsePageParams(c)

		total, err := col.CountDocuments(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count expenses"})
			return
		}

		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
		if page.Enabled {
			opts.SetSkip(page.Skip()).SetLimit(page.Limit)
		}

		cursor, err := col.Find(ctx, filter, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch expenses"})
			return
		}

		expenses := []models.Expense{}
		if err := cursor.All(ctx, &expenses); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode expenses"})
			return
		}

		resp := page.metadata(total)
		resp["expenses"] = expenses
		c.JSON(http.StatusOK, resp)
	}
}

// ---------------- GET ----------------
func GetExpense(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var expense models.Expense
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("expenses").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&expense)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}

		c.JSON(http.StatusOK, expense)
	}
}

// ---------------- UPDATE ----------------
func UpdateExpense(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
			return
		}

		var input struct {
			Category    string   `json:"category" binding:"omitempty,expense_category"`
			Amount      *float64 `json:"amount"`
			Description *string  `json:"description"`
			Date        *string  `json:"date"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("expenses")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Expense
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Category != "" {
			update["category"] = input.Category
		}
		if input.Amount != nil {
			if *input.Amount <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than 0"})
				return
			}
			update["amount"] = *input.Amount
		}
		if input.Description != nil {
			update["description"] = *input.Description
		}
		if input.Date != nil {
			date, ok := parseDate(input.Date)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["date"] = date
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update expense"})
			return
		}

		var updated models.Expense
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated expense"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, updated.FestivalID)

		c.JSON(http.StatusOK, gin.H{
			"expense":       updated,
			"festivalStats": snapshot,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteExpense(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("expenses")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// capture the festival id before the record is gone
		var existing models.Expense
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}
		festivalID := existing.FestivalID

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete expense"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, festivalID)

		c.JSON(http.StatusOK, gin.H{
			"message":       "expense deleted",
			"id":            oid.Hex(),
			"festivalStats": snapshot,
		})
	}
}

// dateRangeStart maps the dateRange query values to a lower bound.
func dateRangeStart(dateRange string, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch dateRange {
	case "today":
		return midnight, true
	case "this_week":
		// weeks start on Monday
		offset := int(now.Weekday()) - 1
		if offset < 0 {
			offset = 6
		}
		return midnight.AddDate(0, 0, -offset), true
	case "this_month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}
