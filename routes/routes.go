package routes

import (
	"net/http"
	"time"

	"polizas-backend/config"
	"polizas-backend/controllers"
	"polizas-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *controllers.AuthController
	Notices   *controllers.NoticeController
	Clients   *controllers.ClientController
	Companies *controllers.CompanyController
	Dashboard *controllers.DashboardController
}

func SetupRouter(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := utils.AuthMiddleware(cfg.JWTSecret)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		auth.Use(requireAuth)
		auth.GET("/me", h.Auth.Me)
		auth.GET("/profile", h.Auth.GetProfile)
		auth.PUT("/profile", h.Auth.SetupProfile)
	}

	api := r.Group("/api")
	api.Use(requireAuth)
	{
		notices := api.Group("/notices")
		{
			notices.GET("", h.Notices.ListNotices)
			notices.POST("/housekeeping/reimburse", h.Notices.ReimburseUpcoming)
			notices.POST("/housekeeping/purge", h.Notices.PurgeStale)
			notices.GET("/:id", h.Notices.GetNotice)
			notices.PUT("/:id/status", h.Notices.UpdateStatus)
			notices.POST("/:id/payment", h.Notices.RecordPayment)
			notices.POST("/:id/rollover", h.Notices.RetryRollover)
			notices.POST("/:id/notes", h.Notices.AddNote)
			notices.POST("/:id/remind", h.Notices.SendReminder)
		}

		clients := api.Group("/clients")
		{
			clients.GET("", h.Clients.ListClients)
			clients.POST("", h.Clients.CreateClient)
			clients.GET("/:id", h.Clients.GetClient)
			clients.PUT("/:id", h.Clients.UpdateClient)
		}

		companies := api.Group("/companies")
		{
			companies.GET("", h.Companies.ListCompanies)
			companies.POST("", h.Companies.CreateCompany)
			companies.PUT("/:id", h.Companies.UpdateCompany)
		}

		api.GET("/dashboard", h.Dashboard.GetDashboardOverview)
	}

	return r
}
