package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/config"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/economy"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/email"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/handlers"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/middleware"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/services"
	chatws "github.com/Ananyachauhan19/Skill-Swap-sub008/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.SugaredLogger) {
	userRepo := repository.NewUserRepository(db)
	sessionRequestRepo := repository.NewSessionRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	skillMateRepo := repository.NewSkillMateRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	notificationService := services.NewNotificationService(notificationRepo)
	emailSender := email.NewLogSender(logger)
	sessionService := services.NewSessionService(
		sessionRequestRepo,
		userRepo,
		notificationService,
		emailSender,
		activityRepo,
		economy.DefaultRateTable(),
		logger,
	)
	skillMateService := services.NewSkillMateService(skillMateRepo, userRepo, notificationService)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	skillMateHandler := handlers.NewSkillMateHandler(skillMateService)
	ticketHandler := handlers.NewTicketHandler(ticketRepo)
	chatHub := chatws.NewHub(logger)
	go chatHub.Run()
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Put("/availability", authHandler.SetAvailability)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.CreateSessionRequest)
	sessions.Get("", sessionHandler.ListSessionRequests)
	sessions.Get("/:id", sessionHandler.GetSessionRequest)
	sessions.Get("/:id/join-check", sessionHandler.ValidateJoin)
	sessions.Post("/:id/approve", sessionHandler.Approve)
	sessions.Post("/:id/reject", sessionHandler.Reject)
	sessions.Post("/:id/start", sessionHandler.Start)
	sessions.Post("/:id/complete", sessionHandler.Complete)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)
	sessions.Post("/:id/rate", sessionHandler.Rate)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	skillmates := authProtected.Group("/skillmates")
	skillmates.Post("", skillMateHandler.SendRequest)
	skillmates.Get("", skillMateHandler.List)
	skillmates.Get("/incoming", skillMateHandler.ListIncoming)
	skillmates.Post("/:id/accept", skillMateHandler.Accept)
	skillmates.Post("/:id/reject", skillMateHandler.Reject)

	tickets := authProtected.Group("/tickets")
	tickets.Post("", ticketHandler.Create)
	tickets.Get("", ticketHandler.List)
	tickets.Get("/:id", ticketHandler.Get)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
