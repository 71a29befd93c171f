package controllers

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/festivalfund/festival-fund-go/config"
	models "github.com/festivalfund/festival-fund-go/models"
	stats "github.com/festivalfund/festival-fund-go/stats"
)

// pageParams reads optional page/limit query parameters. When absent the
// caller returns the full result set with synthetic metadata.
type pageParams struct {
	Enabled bool
	Page    int64
	Limit   int64
}

func parseFloatQuery(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

func parsePageParams(c *gin.Context) pageParams {
	pageStr, limitStr := c.Query("page"), c.Query("limit")
	if pageStr == "" || limitStr == "" {
		return pageParams{}
	}
	page, err1 := strconv.ParseInt(pageStr, 10, 64)
	limit, err2 := strconv.ParseInt(limitStr, 10, 64)
	if err1 != nil || err2 != nil || page < 1 || limit < 1 {
		return pageParams{}
	}
	return pageParams{Enabled: true, Page: page, Limit: limit}
}

func (p pageParams) Skip() int64 { return (p.Page - 1) * p.Limit }

func (p pageParams) metadata(total int64) gin.H {
	if !p.Enabled {
		return gin.H{"total": total, "page": 1, "limit": total, "totalPages": 1}
	}
	return gin.H{
		"total":      total,
		"page":       p.Page,
		"limit":      p.Limit,
		"totalPages": int64(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// recomputeFestivalStats runs the aggregator after a ledger mutation. The
// mutation has already committed, so a failed recompute only loses the
// cache refresh: it is logged and the response carries a nil snapshot.
func recomputeFestivalStats(cfg *config.Config, agg *stats.Aggregator, festivalID primitive.ObjectID) *models.StatsSnapshot {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot, err := agg.Recompute(ctx, festivalID)
	if err != nil {
		cfg.Log.WithError(err).WithField("festivalId", festivalID.Hex()).
			Error("failed to recompute festival stats")
		return nil
	}
	return &snapshot
}
