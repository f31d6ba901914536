package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"

	_ "procurehub/api/swagger" // swagger docs
	"procurehub/internal/database"
	"procurehub/internal/handler"
	"procurehub/internal/mailer"
	"procurehub/internal/repository"
	"procurehub/internal/service"
	"procurehub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           ProcureHub Request Lifecycle API
// @version         1.0
// @description     Procurement marketplace portal: request status orchestration, notifications, invoices and archival.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "procurehub")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	notifier := service.NewNotifier(notificationRepo, outboxRepo, requestRepo, userRepo, productRepo)
	invoiceTrigger := service.NewInvoiceTrigger(invoiceRepo, productRepo)
	lifecycleService := service.NewLifecycleService(
		requestRepo, historyRepo, archiveRepo, productRepo, invoiceRepo,
		invoiceTrigger, notifier, txManager, wsHub, logger,
	)
	catalogService := service.NewCatalogService(
		productRepo, requestRepo, lifecycleService, txManager, wsHub, logger,
	)

	// Outbox worker drains queued notification emails in the background
	smtpPort, _ := strconv.Atoi(envOr("SMTP_PORT", "587"))
	smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     envOr("SMTP_HOST", "localhost"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envOr("SMTP_FROM", "noreply@procurehub.local"),
	})
	outboxWorker := mailer.NewOutboxWorker(outboxRepo, smtpMailer, logger)
	go outboxWorker.Run(context.Background())

	// Initialize Handlers
	requestHandler := handler.NewRequestHandler(lifecycleService, requestRepo, historyRepo)
	productHandler := handler.NewProductHandler(catalogService, lifecycleService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceRepo, archiveRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	requestHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
