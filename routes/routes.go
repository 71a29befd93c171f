package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/festivalfund/festival-fund-go/config"
	controllers "github.com/festivalfund/festival-fund-go/controllers"
	middleware "github.com/festivalfund/festival-fund-go/middleware"
	stats "github.com/festivalfund/festival-fund-go/stats"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	store := stats.NewMongoStore(cfg.MongoClient.Database(cfg.DBName))
	agg := stats.NewAggregator(store, store, cfg.Log)

	// public
	r.POST("/api/auth/register", controllers.Register(cfg))
	r.POST("/api/auth/login", controllers.Login(cfg))
	r.POST("/api/auth/refresh", controllers.RefreshToken(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.RequireAdmin()

	r.GET("/api/auth/me", auth, controllers.Me(cfg))
	r.GET("/api/auth/logout", auth, controllers.Logout(cfg))

	users := r.Group("/api/users")
	users.Use(auth, admin)
	{
		users.GET("", controllers.ListUsers(cfg))
		users.GET("/:id", controllers.GetUser(cfg))
		users.PATCH("/:id", controllers.UpdateUser(cfg))
		users.DELETE("/:id", controllers.DeleteUser(cfg))
	}

	festivals := r.Group("/api/festivals")
	festivals.Use(auth)
	{
		festivals.GET("", controllers.ListFestivals(cfg))
		festivals.GET("/:id", controllers.GetFestival(cfg))
		festivals.POST("", admin, controllers.CreateFestival(cfg))
		festivals.PATCH("/:id", admin, controllers.UpdateFestival(cfg))
		festivals.DELETE("/:id", admin, controllers.DeleteFestival(cfg))
	}

	contributors := r.Group("/api/contributors")
	contributors.Use(auth)
	{
		contributors.GET("", controllers.ListContributors(cfg))
		contributors.GET("/:id", controllers.GetContributor(cfg))
		contributors.POST("", admin, controllers.CreateContributor(cfg))
		contributors.PATCH("/:id", admin, controllers.UpdateContributor(cfg))
		contributors.DELETE("/:id", admin, controllers.DeleteContributor(cfg))
	}

	contributions := r.Group("/api/contributions")
	contributions.Use(auth)
	{
		contributions.GET("", controllers.ListContributions(cfg))
		contributions.GET("/:id", controllers.GetContribution(cfg))
		contributions.GET("/:id/slip", controllers.GenerateContributionSlip(cfg))
		contributions.POST("", admin, controllers.CreateContribution(cfg, agg))
		contributions.PATCH("/:id", admin, controllers.UpdateContribution(cfg, agg))
		contributions.DELETE("/:id", admin, controllers.DeleteContribution(cfg, agg))
	}

	expenses := r.Group("/api/expenses")
	expenses.Use(auth)
	{
		expenses.GET("", controllers.ListExpenses(cfg))
		expenses.GET("/:id", controllers.GetExpense(cfg))
		expenses.POST("", admin, controllers.CreateExpense(cfg, agg))
		expenses.PATCH("/:id", admin, controllers.UpdateExpense(cfg, agg))
		expenses.DELETE("/:id", admin, controllers.DeleteExpense(cfg, agg))
	}

	reports := r.Group("/api/reports")
	reports.Use(auth)
	{
		reports.GET("/festival/:festivalId/stats", controllers.GetFestivalStats(cfg, agg))
		reports.GET("/festival/:festivalId", controllers.FestivalReport(cfg, agg))
		reports.GET("/festival/:festivalId/xlsx", controllers.FestivalReportXlsx(cfg, agg))
		reports.GET("/expenses/:festivalId", controllers.ExpensesReport(cfg, agg))
	}
}
