package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/controllers"
	"github.com/dlehman/mechanic-shop-api/middleware"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
)

func main() {
	log.Println("Starting Mechanic Shop API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Mechanic{},
		&models.Inventory{},
		&models.ServiceTicket{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Photo storage backend
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	photoService := services.NewS3PhotoService(s3Service)

	router := setupRouter(cfg, photoService)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires services, middleware and routes. Extracted from main
// so tests can exercise the full routing table.
func setupRouter(cfg *config.Config, photos services.PhotoService) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	guard := middleware.NewAuthGuard(tokens)
	listingCache := services.NewListingCache(services.DefaultListingTTL)

	customerCtl := controllers.NewCustomerController(tokens)
	mechanicCtl := controllers.NewMechanicController()
	inventoryCtl := controllers.NewInventoryController(listingCache)
	ticketCtl := controllers.NewTicketController(photos)

	// Excess calls are rejected before the guard or any handler runs
	registrationLimiter := middleware.NewRateLimiter(5)
	assignmentLimiter := middleware.NewRateLimiter(20)

	router.GET("/health", healthCheck)
	router.GET("/", apiInfo)

	customers := router.Group("/customers")
	{
		customers.POST("/", registrationLimiter.Middleware(), customerCtl.Register)
		customers.POST("/login", customerCtl.Login)
		customers.GET("/", customerCtl.List)
		customers.GET("/my-tickets", guard.RequireCustomer(), customerCtl.MyTickets)
		customers.GET("/:id", customerCtl.Get)
		customers.PUT("/:id", guard.RequireSelf("id"), customerCtl.Update)
		customers.DELETE("/:id", guard.RequireSelf("id"), customerCtl.Delete)
	}

	mechanics := router.Group("/mechanics")
	{
		mechanics.GET("/", mechanicCtl.List)
		mechanics.GET("/:id", mechanicCtl.Get)
		mechanics.POST("/", mechanicCtl.Create)
		mechanics.PUT("/:id", guard.RequireMechanic(), mechanicCtl.Update)
		mechanics.DELETE("/:id", guard.RequireMechanic(), mechanicCtl.Delete)
	}

	inventory := router.Group("/inventory")
	{
		inventory.GET("/", inventoryCtl.List)
		inventory.GET("/:id", inventoryCtl.Get)
		inventory.POST("/", guard.RequireMechanic(), inventoryCtl.Create)
		inventory.POST("/bulk", guard.RequireMechanic(), inventoryCtl.BulkCreate)
		inventory.PUT("/:id", guard.RequireMechanic(), inventoryCtl.Update)
		inventory.DELETE("/:id", guard.RequireMechanic(), inventoryCtl.Delete)
	}

	tickets := router.Group("/service-tickets")
	{
		tickets.GET("/", ticketCtl.List)
		tickets.GET("/:id", ticketCtl.Get)
		tickets.POST("/", ticketCtl.Create)
		tickets.PUT("/:id", ticketCtl.Update)
		tickets.DELETE("/:id", ticketCtl.Delete)
		tickets.PUT("/:id/assign-mechanic/:mechanicID", assignmentLimiter.Middleware(), ticketCtl.AssignMechanic)
		tickets.PUT("/:id/remove-mechanic/:mechanicID", ticketCtl.RemoveMechanic)
		tickets.PUT("/:id/edit", ticketCtl.EditMechanics)
		tickets.POST("/:id/inventory/:inventoryID", ticketCtl.AttachPart)
		tickets.GET("/:id/cost", ticketCtl.GetCost)
		tickets.POST("/:id/photo", guard.RequireMechanic(), ticketCtl.UploadPhoto)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mechanic Shop API is running",
	})
}

// apiInfo handles the root endpoint
func apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome to the Mechanic Shop API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"customers":       "/customers",
			"mechanics":       "/mechanics",
			"inventory":       "/inventory",
			"service_tickets": "/service-tickets",
			"health":          "/health",
		},
	})
}
