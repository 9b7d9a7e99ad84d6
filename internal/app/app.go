package app

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"estatecrm/internal/config"
	"estatecrm/internal/handlers"
	"estatecrm/internal/pdf"
	"estatecrm/internal/repositories"
	"estatecrm/internal/routes"
	"estatecrm/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "estatecrm/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	leadRepo := repositories.NewLeadRepository(db)
	propertyRepo := repositories.NewPropertyRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	jwtKey := []byte(cfg.Auth.JWTSecret)
	authService := services.NewAuthService(jwtKey)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	notifier := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	userService := services.NewUserService(userRepo, authService)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService)
	leadService := services.NewLeadService(leadRepo, propertyRepo, teamRepo, emailService, notifier)
	propertyService := services.NewPropertyService(propertyRepo, leadRepo, teamRepo, emailService)
	teamService := services.NewTeamService(teamRepo, emailService)
	dashboardService := services.NewDashboardService(leadRepo, propertyRepo, teamRepo)
	whatsappService := services.NewWhatsAppService(leadRepo, teamRepo)

	// PDF-буклеты (положи TTF в assets/fonts/DejaVuSans.ttf)
	brochureGen := pdf.NewBrochureGenerator(cfg.Files.RootDir, "assets/fonts/DejaVuSans.ttf")

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, resetService)
	leadHandler := handlers.NewLeadHandler(leadService)
	propertyHandler := handlers.NewPropertyHandler(propertyService, teamRepo, brochureGen)
	teamHandler := handlers.NewTeamHandler(teamService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		jwtKey,
		authHandler,
		leadHandler,
		propertyHandler,
		teamHandler,
		dashboardHandler,
		whatsappHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
