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

// contributionInput is the explicit allow-list of accepted fields. The
// type tag decides which value fields are meaningful; anything outside
// the active variant is rejected rather than silently stored.
type contributionInput struct {
	ContributorID  string   `json:"contributorId" binding:"required"`
	FestivalID     string   `json:"festivalId" binding:"required"`
	Type           string   `json:"type" binding:"required,contribution_type"`
	Status         string   `json:"status" binding:"omitempty,contribution_status"`
	Date           *string  `json:"date"`
	Amount         *float64 `json:"amount"`
	ItemName       string   `json:"itemName"`
	Quantity       int      `json:"quantity"`
	EstimatedValue *float64 `json:"estimatedValue"`
}

func (in contributionInput) validateVariant() string {
	switch in.Type {
	case models.TypeCash:
		if in.Amount == nil || *in.Amount <= 0 {
			return "amount is required for cash contributions and must be greater than 0"
		}
		if in.ItemName != "" || in.Quantity != 0 || in.EstimatedValue != nil {
			return "item fields are not allowed on cash contributions"
		}
	case models.TypeItem:
		if in.ItemName == "" {
			return "itemName is required for item contributions"
		}
		if in.Amount != nil {
			return "amount is not allowed on item contributions"
		}
	}
	return ""
}

func parseDate(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		return time.Now(), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------- CREATE ----------------
func CreateContribution(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input contributionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if msg := input.validateVariant(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		contributorID, err := primitive.ObjectIDFromHex(input.ContributorID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contributor id"})
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
		var contributor models.Contributor
		if err := db.Collection("contributors").FindOne(ctx, bson.M{"_id": contributorID}).Decode(&contributor); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contributor not found"})
			return
		}

		status := input.Status
		if status == "" {
			status = models.StatusPending
		}

		now := time.Now()
		contribution := models.Contribution{
			ID:            primitive.NewObjectID(),
			ContributorID: contributorID,
			FestivalID:    festivalID,
			Type:          input.Type,
			Status:        status,
			Date:          date,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		switch input.Type {
		case models.TypeCash:
			contribution.Amount = input.Amount
		case models.TypeItem:
			contribution.ItemName = input.ItemName
			contribution.Quantity = input.Quantity
			contribution.EstimatedValue = input.EstimatedValue
		}

		if _, err := db.Collection("contributions").InsertOne(ctx, contribution); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create contribution"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, festivalID)

		if status == models.StatusDeposited && contribution.Type == models.TypeCash {
			go cfg.Notifier.SendDepositConfirmation(
				contributor.PhoneNumber, contributor.Name, festival.Name, contribution.CashAmount())
		}

		c.JSON(http.StatusCreated, gin.H{
			"contribution":  contribution,
			"festivalStats": snapshot,
		})
	}
}

// ---------------- LIST ----------------
func ListContributions(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if festivalID := c.Query("festivalId"); festivalID != "" {
			if oid, err := primitive.ObjectIDFromHex(festivalID); err == nil {
				filter["festivalId"] = oid
			}
		}
		if contributorID := c.Query("contributorId"); contributorID != "" {
			if oid, err := primitive.ObjectIDFromHex(contributorID); err == nil {
				filter["contributorId"] = oid
			}
		}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}
		if typ := c.Query("type"); typ != "" {
			filter["type"] = typ
		}

		dateFilter := bson.M{}
		if start := c.Query("startDate"); start != "" {
			if t, err := time.Parse("2006-01-02", start); err == nil {
				dateFilter["$gte"] = t
			}
		}
		if end := c.Query("endDate"); end != "" {
			if t, err := time.Parse("2006-01-02", end); err == nil {
				dateFilter["$lte"] = t
			}
		}
		if len(dateFilter) > 0 {
			filter["date"] = dateFilter
		}

		amountFilter := bson.M{}
		if min := c.Query("minAmount"); min != "" {
			if v, err := parseFloatQuery(min); err == nil {
				amountFilter["$gte"] = v
			}
		}
		if max := c.Query("maxAmount"); max != "" {
			if v, err := parseFloatQuery(max); err == nil {
				amountFilter["$lte"] = v
			}
		}
		if len(amountFilter) > 0 {
			filter["amount"] = amountFilter
		}

		// search matches contributor names (and item names) case-insensitively
		if search := c.Query("search"); search != "" {
			regex := bson.M{"$regex": search, "$options": "i"}
			contributorIDs, err := matchingContributorIDs(ctx, cfg, regex)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search contributors"})
				return
			}
			filter["$or"] = []bson.M{
				{"contributorId": bson.M{"$in": contributorIDs}},
				{"itemName": regex},
			}
		}

		col := db.Collection("contributions")
		page := parsePageParams(c)

		total, err := col.CountDocuments(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count contributions"})
			return
		}

		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
		if page.Enabled {
			opts.SetSkip(page.Skip()).SetLimit(page.Limit)
		}

		cursor, err := col.Find(ctx, filter, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch contributions"})
			return
		}

		contributions := []models.Contribution{}
		if err := cursor.All(ctx, &contributions); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode contributions"})
			return
		}

		resp := page.metadata(total)
		resp["contributions"] = contributions
		c.JSON(http.StatusOK, resp)
	}
}

// ---------------- GET ----------------
func GetContribution(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var contribution models.Contribution
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("contributions").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&contribution)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}

		c.JSON(http.StatusOK, contribution)
	}
}

// ---------------- UPDATE ----------------
func UpdateContribution(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		var input struct {
			Status         string   `json:"status" binding:"omitempty,contribution_status"`
			Date           *string  `json:"date"`
			Amount         *float64 `json:"amount"`
			ItemName       string   `json:"itemName"`
			Quantity       *int     `json:"quantity"`
			EstimatedValue *float64 `json:"estimatedValue"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := db.Collection("contributions")
		var existing models.Contribution
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Status != "" {
			update["status"] = input.Status
		}
		if input.Date != nil {
			date, ok := parseDate(input.Date)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["date"] = date
		}

		// value fields stay within the record's variant
		switch existing.Type {
		case models.TypeCash:
			if input.ItemName != "" || input.Quantity != nil || input.EstimatedValue != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "item fields are not allowed on cash contributions"})
				return
			}
			if input.Amount != nil {
				if *input.Amount <= 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than 0"})
					return
				}
				update["amount"] = *input.Amount
			}
		case models.TypeItem:
			if input.Amount != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "amount is not allowed on item contributions"})
				return
			}
			if input.ItemName != "" {
				update["itemName"] = input.ItemName
			}
			if input.Quantity != nil {
				update["quantity"] = *input.Quantity
			}
			if input.EstimatedValue != nil {
				update["estimatedValue"] = *input.EstimatedValue
			}
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update contribution"})
			return
		}

		var updated models.Contribution
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated contribution"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, updated.FestivalID)

		// notify on the pending -> deposited transition for cash
		if existing.Status != models.StatusDeposited &&
			updated.Status == models.StatusDeposited &&
			updated.Type == models.TypeCash {
			notifyDeposit(cfg, updated)
		}

		c.JSON(http.StatusOK, gin.H{
			"contribution":  updated,
			"festivalStats": snapshot,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteContribution(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("contributions")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// the festival id must be captured before the record disappears:
		// the recompute below runs against a ledger without this row
		var existing models.Contribution
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}
		festivalID := existing.FestivalID

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete contribution"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}

		snapshot := recomputeFestivalStats(cfg, agg, festivalID)

		c.JSON(http.StatusOK, gin.H{
			"message":       "contribution deleted",
			"id":            oid.Hex(),
			"festivalStats": snapshot,
		})
	}
}

// ---------------- SLIP ----------------
// GenerateContributionSlip returns the receipt data for one contribution:
// the record plus its contributor, festival and the festival's snapshot.
func GenerateContributionSlip(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var contribution models.Contribution
		if err := db.Collection("contributions").FindOne(ctx, bson.M{"_id": oid}).Decode(&contribution); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}

		var contributor models.Contributor
		_ = db.Collection("contributors").FindOne(ctx, bson.M{"_id": contribution.ContributorID}).Decode(&contributor)

		var festival models.Festival
		_ = db.Collection("festivals").FindOne(ctx, bson.M{"_id": contribution.FestivalID}).Decode(&festival)

		c.JSON(http.StatusOK, gin.H{
			"slip": gin.H{
				"contribution": contribution,
				"contributor":  contributor,
				"festival":     festival,
				"stats":        festival.Stats,
			},
		})
	}
}

func notifyDeposit(cfg *config.Config, contribution models.Contribution) {
	db := cfg.MongoClient.Database(cfg.DBName)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var contributor models.Contributor
	if err := db.Collection("contributors").FindOne(ctx, bson.M{"_id": contribution.ContributorID}).Decode(&contributor); err != nil {
		return
	}
	var festival models.Festival
	if err := db.Collection("festivals").FindOne(ctx, bson.M{"_id": contribution.FestivalID}).Decode(&festival); err != nil {
		return
	}

	go cfg.Notifier.SendDepositConfirmation(
		contributor.PhoneNumber, contributor.Name, festival.Name, contribution.CashAmount())
}

func matchingContributorIDs(ctx context.Context, cfg *config.Config, regex bson.M) ([]primitive.ObjectID, error) {
	cursor, err := cfg.MongoClient.Database(cfg.DBName).
		Collection("contributors").
		Find(ctx, bson.M{"$or": []bson.M{{"name": regex}, {"address": regex}}},
			options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
