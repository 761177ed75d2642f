package routes

import (
	"os"
	"strings"

	"concretera-backend/config"
	"concretera-backend/controllers"
	"concretera-backend/middlewares"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := strings.Split(os.Getenv("CORS_ORIGINS"), ",")
	if len(origins) == 1 && origins[0] == "" {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.Static("/uploads", utils.UploadDir())

	// Public endpoints
	r.GET("/api/currency/rates", controllers.GetCurrencyRates)
	r.GET("/api/settings", controllers.GetSettings)
	r.GET("/api/settings/:key", controllers.GetSetting)
	r.POST("/api/webhooks/auth0", controllers.Auth0Webhook)

	api := r.Group("/api")
	api.Use(middlewares.Auth(), middlewares.Provision())
	{
		budgets := api.Group("/budgets")
		{
			budgets.POST("", controllers.CreateBudget)
			budgets.GET("", controllers.GetBudgets)
			budgets.GET("/:id", controllers.GetBudget)
			budgets.PUT("/:id", controllers.UpdateBudget)
			budgets.DELETE("/:id", controllers.DeleteBudget)

			budgets.POST("/:id/approve", middlewares.RequirePrivileged(), controllers.ApproveBudget)
			budgets.POST("/:id/reject", middlewares.RequirePrivileged(), controllers.RejectBudget)
		}

		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		products := api.Group("/products")
		{
			products.GET("", controllers.GetProducts)
			products.GET("/:id", controllers.GetProduct)
			products.GET("/:id/prices", controllers.GetProductPrices)

			products.POST("", middlewares.RequirePrivileged(), controllers.CreateProduct)
			products.PUT("/:id", middlewares.RequirePrivileged(), controllers.UpdateProduct)
			products.POST("/:id/prices", middlewares.RequirePrivileged(), controllers.AddProductPrice)
			products.DELETE("/:id", middlewares.RequireRoles(models.RoleAdministrador), controllers.DeleteProduct)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", controllers.CreatePayment)
			payments.GET("", controllers.GetPayments)
			payments.GET("/:id", controllers.GetPayment)
			payments.POST("/:id/receipt", controllers.UploadPaymentReceipt)

			payments.POST("/:id/validate", middlewares.RequirePrivileged(), controllers.ValidatePayment)
			payments.POST("/:id/reject", middlewares.RequirePrivileged(), controllers.RejectPayment)
			payments.DELETE("/:id", middlewares.RequireRoles(models.RoleAdministrador), controllers.DeletePayment)
		}

		invoices := api.Group("/invoices")
		{
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.POST("/:id/document", middlewares.RequirePrivileged(), controllers.UploadInvoiceDocument)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", controllers.CreateProject)
			projects.GET("", controllers.GetProjects)
			projects.PUT("/:id", controllers.UpdateProject)
			projects.DELETE("/:id", controllers.DeleteProject)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", controllers.GetNotifications)
			notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			notifications.PUT("/:id/read", controllers.MarkNotificationRead)
		}

		users := api.Group("/users")
		{
			users.GET("/me", controllers.GetMe)
			users.PUT("/me", controllers.UpdateMe)
			users.GET("", middlewares.RequirePrivileged(), controllers.GetUsers)
			users.PUT("/:id/role", middlewares.RequireRoles(models.RoleAdministrador), controllers.UpdateUserRole)
		}

		api.GET("/events/users", controllers.StreamEvents)

		reportController := controllers.ReportController{}
		api.GET("/reports", middlewares.RequirePrivileged(), reportController.GetReportAnalytics)

		api.GET("/dashboard", controllers.GetDashboardOverview)

		api.POST("/chat", controllers.Chat)

		api.POST("/settings", middlewares.RequireRoles(models.RoleAdministrador), controllers.UpsertSetting)

		api.GET("/audit", middlewares.RequireRoles(models.RoleAdministrador), controllers.GetAuditLogs)
	}

	return r
}
