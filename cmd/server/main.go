package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"momentum/internal/config"
	"momentum/internal/database"
	"momentum/internal/handlers"
	"momentum/internal/jobs"
	"momentum/internal/logging"
	"momentum/internal/middleware"
	"momentum/internal/services"
	"momentum/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Momentum Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET environment variable is required (generate with: openssl rand -hex 32)")
	}

	// MongoDB
	log.Println("🔗 Connecting to MongoDB...")
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoDB.Initialize(initCtx); err != nil {
		cancelInit()
		log.Fatalf("❌ Failed to initialize MongoDB indexes: %v", err)
	}
	cancelInit()
	log.Println("✅ MongoDB connected and indexes ensured")

	// Redis (optional): enables cross-instance board event fan-out
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, board events stay instance-local: %v", err)
			redisService = nil
		} else {
			defer redisService.Close()
		}
	}

	// Board templates (default columns for new projects), hot-reloaded
	templates, err := config.NewTemplateStore(cfg.BoardTemplatesPath)
	if err != nil {
		log.Fatalf("❌ Failed to load board templates: %v", err)
	}
	if err := templates.Watch(); err != nil {
		log.Printf("⚠️ Board template hot-reload disabled: %v", err)
	}
	defer templates.Close()

	// JWT
	jwtAuth, err := auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	// Metrics and services
	metrics := services.InitMetrics()
	eventService := services.NewBoardEventService(redisService, metrics)

	userService := services.NewUserService(mongoDB)
	teamService := services.NewTeamService(mongoDB)
	projectService := services.NewProjectService(mongoDB)
	taskGroupService := services.NewTaskGroupService(mongoDB, eventService, metrics)
	taskService := services.NewTaskService(mongoDB, eventService, metrics)
	maintenanceService := services.NewMaintenanceService(mongoDB, metrics)
	exportService := services.NewExportService(projectService)
	assistantService := services.NewAssistantService(mongoDB, projectService, metrics,
		cfg.AssistantBaseURL, cfg.AssistantAPIKey, cfg.AssistantModel)

	// Cross-instance event bridge
	bridgeCtx, stopBridge := context.WithCancel(context.Background())
	defer stopBridge()
	if redisService != nil {
		go eventService.StartBridge(bridgeCtx)
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler(maintenanceService, taskService, cfg.RebalanceCron, cfg.DueSoonCron)
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	scheduler.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(jwtAuth, userService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	projectHandler := handlers.NewProjectHandler(projectService, exportService, templates)
	taskGroupHandler := handlers.NewTaskGroupHandler(projectService, taskGroupService)
	taskHandler := handlers.NewTaskHandler(projectService, taskGroupService, taskService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	healthHandler := handlers.NewHealthHandler(mongoDB)
	boardWSHandler := handlers.NewBoardWebSocketHandler(projectService, eventService, metrics)

	app := fiber.New(fiber.Config{
		AppName:      "Momentum",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("momentum")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	app.Get("/health", healthHandler.Handle)

	// Auth (rate limited harder than the rest of the API)
	authGroup := app.Group("/api/auth", middleware.AuthRateLimiter(rateLimitConfig))
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", middleware.AuthMiddleware(jwtAuth), authHandler.Logout)

	api := app.Group("/api", middleware.AuthMiddleware(jwtAuth))

	// Profile
	api.Get("/users/me", userHandler.Me)
	api.Patch("/users/me", userHandler.UpdateProfile)
	api.Post("/users/me/password", userHandler.ChangePassword)

	// Teams
	api.Post("/teams", teamHandler.Create)
	api.Get("/teams", teamHandler.List)
	api.Get("/teams/:id", teamHandler.Get)
	api.Patch("/teams/:id", teamHandler.Update)
	api.Delete("/teams/:id", teamHandler.Delete)
	api.Post("/teams/:id/members", teamHandler.AddMember)
	api.Patch("/teams/:id/members/:userID", teamHandler.UpdateMember)
	api.Delete("/teams/:id/members/:userID", teamHandler.RemoveMember)

	// Projects
	api.Post("/projects", projectHandler.Create)
	api.Get("/projects", projectHandler.List)
	api.Get("/projects/:id", projectHandler.Get)
	api.Get("/projects/:id/board", projectHandler.Board)
	api.Get("/projects/:id/export", projectHandler.Export)
	api.Patch("/projects/:id", projectHandler.Update)
	api.Delete("/projects/:id", projectHandler.Delete)
	api.Post("/projects/:id/members", projectHandler.AddMember)
	api.Patch("/projects/:id/members/:userID", projectHandler.UpdateMember)
	api.Delete("/projects/:id/members/:userID", projectHandler.RemoveMember)

	// Task groups
	api.Post("/task-groups", taskGroupHandler.Create)
	api.Patch("/task-groups/:id", taskGroupHandler.Update)
	api.Delete("/task-groups/:id", taskGroupHandler.Delete)

	// Tasks
	api.Post("/tasks", taskHandler.Create)
	api.Post("/tasks/preview", taskHandler.PreviewDescription)
	api.Get("/tasks/:id", taskHandler.Get)
	api.Patch("/tasks/:id", taskHandler.Update)
	api.Delete("/tasks/:id", taskHandler.Delete)

	// Assistant
	assistant := api.Group("/assistant", middleware.AssistantRateLimiter(rateLimitConfig))
	assistant.Post("/chat", assistantHandler.Chat)
	assistant.Get("/conversations", assistantHandler.ListConversations)
	assistant.Get("/conversations/:id", assistantHandler.GetConversation)
	assistant.Delete("/conversations/:id", assistantHandler.DeleteConversation)

	// Board event stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/projects/:id", middleware.AuthMiddleware(jwtAuth))
	app.Get("/ws/projects/:id", websocket.New(boardWSHandler.Handle))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Printf("🛑 Received signal %v, shutting down...", sig)

		stopBridge()
		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️ Scheduler shutdown error: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
	log.Println("👋 Server stopped")
}
