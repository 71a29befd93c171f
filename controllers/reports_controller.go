package controllers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/festivalfund/festival-fund-go/config"
	models "github.com/festivalfund/festival-fund-go/models"
	stats "github.com/festivalfund/festival-fund-go/stats"
	utils "github.com/festivalfund/festival-fund-go/utils"
)

// contributionRow is a contribution joined with its contributor for the
// report templates.
type contributionRow struct {
	Contribution models.Contribution
	Contributor  models.Contributor
}

type reportData struct {
	Festival      models.Festival
	Stats         models.StatsSnapshot
	Contributions []contributionRow
	Expenses      []models.Expense
	GeneratedAt   time.Time
}

var reportFuncs = template.FuncMap{
	"inr": utils.FormatINR,
	"date": func(t time.Time) string {
		return t.Format("02/01/2006")
	},
}

// ---------------- STATS ----------------
// GetFestivalStats recomputes and returns the festival's snapshot.
func GetFestivalStats(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		festivalID, err := primitive.ObjectIDFromHex(c.Param("festivalId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snapshot, err := agg.Recompute(ctx, festivalID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not recompute festival stats"})
			return
		}

		c.JSON(http.StatusOK, snapshot)
	}
}

// ---------------- FULL REPORT ----------------
func FestivalReport(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		festivalID, err := primitive.ObjectIDFromHex(c.Param("festivalId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		data, errMsg, status := collectReportData(cfg, agg, festivalID)
		if errMsg != "" {
			c.JSON(status, gin.H{"error": errMsg})
			return
		}
		if len(data.Contributions) == 0 && len(data.Expenses) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no contributions or expenses found for this festival"})
			return
		}

		url, err := renderReport(cfg, c, "festival_report.html", "festival", data)
		if err != nil {
			cfg.Log.WithError(err).Error("failed to render festival report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate report"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url, "stats": data.Stats})
	}
}

// ---------------- EXPENSES REPORT ----------------
func ExpensesReport(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		festivalID, err := primitive.ObjectIDFromHex(c.Param("festivalId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		data, errMsg, status := collectReportData(cfg, agg, festivalID)
		if errMsg != "" {
			c.JSON(status, gin.H{"error": errMsg})
			return
		}
		if len(data.Expenses) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no expenses found for this festival"})
			return
		}

		url, err := renderReport(cfg, c, "expenses_report.html", "expenses", data)
		if err != nil {
			cfg.Log.WithError(err).Error("failed to render expenses report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate report"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url, "stats": data.Stats})
	}
}

// ---------------- EXCEL EXPORT ----------------
func FestivalReportXlsx(cfg *config.Config, agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		festivalID, err := primitive.ObjectIDFromHex(c.Param("festivalId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid festival id"})
			return
		}

		data, errMsg, status := collectReportData(cfg, agg, festivalID)
		if errMsg != "" {
			c.JSON(status, gin.H{"error": errMsg})
			return
		}

		f := excelize.NewFile()
		defer f.Close()

		// Contributions sheet
		f.SetSheetName("Sheet1", "Contributions")
		headers := []interface{}{"Contributor", "Category", "Type", "Amount", "Item", "Status", "Date"}
		_ = f.SetSheetRow("Contributions", "A1", &headers)
		for i, row := range data.Contributions {
			cells := []interface{}{
				row.Contributor.Name,
				row.Contributor.Category,
				row.Contribution.Type,
				row.Contribution.CashAmount(),
				row.Contribution.ItemName,
				row.Contribution.Status,
				row.Contribution.Date.Format("02/01/2006"),
			}
			_ = f.SetSheetRow("Contributions", fmt.Sprintf("A%d", i+2), &cells)
		}

		// Expenses sheet
		if _, err := f.NewSheet("Expenses"); err == nil {
			headers := []interface{}{"Category", "Amount", "Date", "Description"}
			_ = f.SetSheetRow("Expenses", "A1", &headers)
			for i, e := range data.Expenses {
				cells := []interface{}{e.Category, e.Amount, e.Date.Format("02/01/2006"), e.Description}
				_ = f.SetSheetRow("Expenses", fmt.Sprintf("A%d", i+2), &cells)
			}
		}

		// Summary sheet with the snapshot
		if _, err := f.NewSheet("Summary"); err == nil {
			rows := [][]interface{}{
				{"Festival", fmt.Sprintf("%s %d", data.Festival.Name, data.Festival.Year)},
				{"Opening Balance", data.Stats.OpeningBalance},
				{"Total Collected", data.Stats.TotalCollected},
				{"Pending Amount", data.Stats.PendingAmount},
				{"Total Expenses", data.Stats.TotalExpenses},
				{"Current Balance", data.Stats.CurrentBalance},
			}
			for i, r := range rows {
				_ = f.SetSheetRow("Summary", fmt.Sprintf("A%d", i+1), &r)
			}
			rowIdx := len(rows) + 2
			_ = f.SetSheetRow("Summary", fmt.Sprintf("A%d", rowIdx), &[]interface{}{"Expenses by Category"})
			for _, category := range models.ExpenseCategories {
				if total, ok := data.Stats.CategoryTotals[category]; ok {
					rowIdx++
					_ = f.SetSheetRow("Summary", fmt.Sprintf("A%d", rowIdx), &[]interface{}{category, total})
				}
			}
		}

		if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare report directory"})
			return
		}
		fileName := fmt.Sprintf("festival_%s.xlsx", uuid.NewString())
		filePath := filepath.Join(cfg.ReportDir, fileName)
		if err := f.SaveAs(filePath); err != nil {
			cfg.Log.WithError(err).Error("failed to write excel report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate excel report"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": reportURL(c, fileName), "stats": data.Stats})
	}
}

// collectReportData fetches the festival, its joined contributions, its
// expenses and a freshly recomputed snapshot.
func collectReportData(cfg *config.Config, agg *stats.Aggregator, festivalID primitive.ObjectID) (reportData, string, int) {
	db := cfg.MongoClient.Database(cfg.DBName)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var data reportData
	if err := db.Collection("festivals").FindOne(ctx, bson.M{"_id": festivalID}).Decode(&data.Festival); err != nil {
		return data, "festival not found", http.StatusNotFound
	}

	cursor, err := db.Collection("contributions").Find(ctx, bson.M{"festivalId": festivalID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return data, "could not fetch contributions", http.StatusInternalServerError
	}
	var contributions []models.Contribution
	if err := cursor.All(ctx, &contributions); err != nil {
		return data, "could not decode contributions", http.StatusInternalServerError
	}

	contributorsByID := map[primitive.ObjectID]models.Contributor{}
	ccursor, err := db.Collection("contributors").Find(ctx, bson.M{"festivalId": festivalID})
	if err == nil {
		var contributors []models.Contributor
		if err := ccursor.All(ctx, &contributors); err == nil {
			for _, ctr := range contributors {
				contributorsByID[ctr.ID] = ctr
			}
		}
	}
	for _, ctn := range contributions {
		data.Contributions = append(data.Contributions, contributionRow{
			Contribution: ctn,
			Contributor:  contributorsByID[ctn.ContributorID],
		})
	}

	ecursor, err := db.Collection("expenses").Find(ctx, bson.M{"festivalId": festivalID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return data, "could not fetch expenses", http.StatusInternalServerError
	}
	if err := ecursor.All(ctx, &data.Expenses); err != nil {
		return data, "could not decode expenses", http.StatusInternalServerError
	}

	snapshot, err := agg.Recompute(ctx, festivalID)
	if err != nil {
		return data, "could not recompute festival stats", http.StatusInternalServerError
	}
	data.Stats = snapshot
	data.GeneratedAt = time.Now()

	return data, "", 0
}

// renderReport executes the named template into the report directory and
// returns a URL for the file: the Cloudinary URL when uploads are
// configured, the local static URL otherwise.
func renderReport(cfg *config.Config, c *gin.Context, templateName, prefix string, data reportData) (string, error) {
	tmpl, err := template.New(templateName).Funcs(reportFuncs).ParseFiles(filepath.Join("templates", templateName))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s_%s.html", prefix, uuid.NewString())
	filePath := filepath.Join(cfg.ReportDir, fileName)
	out, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	if err := tmpl.Execute(out, data); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if utils.CloudinaryConfigured() {
		url, err := utils.UploadReport(filePath)
		if err == nil {
			return url, nil
		}
		cfg.Log.WithError(err).Warn("report upload failed, serving local copy")
	}
	return reportURL(c, fileName), nil
}

func reportURL(c *gin.Context, fileName string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/reports/%s", scheme, c.Request.Host, fileName)
}
