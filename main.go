package main

import (
	"fmt"
	"log"
	"os"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/routes"
	"concretera-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Project{},
		&models.Product{},
		&models.ProductPrice{},
		&models.Budget{},
		&models.BudgetProduct{},
		&models.Payment{},
		&models.Invoice{},
		&models.Notification{},
		&models.AuditLog{},
		&models.Setting{},
	)
}

func main() {
	if err := services.InitMail(); err != nil {
		log.Printf("mail disabled: %v", err)
	}

	expiry := services.NewExpiryService(config.DB)
	expiry.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
