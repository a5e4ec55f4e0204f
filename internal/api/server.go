package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/stan.go"

	"eventhive/internal/auth"
	"eventhive/internal/cache"
	"eventhive/internal/chatbot"
	"eventhive/internal/config"
	"eventhive/internal/database"
	"eventhive/internal/external"
	"eventhive/internal/handlers"
	"eventhive/internal/logger"
	"eventhive/internal/messaging"
	"eventhive/internal/metrics"
	"eventhive/internal/middleware"
	"eventhive/internal/models"
	"eventhive/internal/realtime"
	"eventhive/internal/repository"
	"eventhive/internal/search"
	"eventhive/internal/service"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	search   *search.ElasticsearchClient
	hub      *realtime.Hub
	services *service.Services
	repos    *repository.Repositories
	subs     []stan.Subscription
}

// NewServer подключает зависимости и настраивает роуты.
// NATS, Valkey и Elasticsearch необязательны: при ошибке подключения сервер работает без них.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Server{config: cfg, db: db}
	s.repos = repository.NewRepositories(db)

	tokens := auth.NewTokenManager(cfg.Auth)
	authService := service.NewAuthService(s.repos.Users, tokens)
	s.hub = realtime.NewHub(authService, cfg.AllowedOrigin, realtime.DefaultSendBuffer)

	gateway := external.NewCheckoutGateway(cfg.Payment)
	log.Info("Payment gateway configured", "gateway", gateway.Name())

	deps := service.Dependencies{
		Repos:          s.repos,
		Tokens:         tokens,
		Auth:           authService,
		Hub:            s.hub,
		Gateway:        gateway,
		Responder:      chatbot.NewResponder(chatbot.DefaultEntries, cfg.ChatTokenDelay),
		PendingTimeout: cfg.RegistrationPendingTimeout,
	}

	// Необязательные клиенты присваиваем только ненулевыми, иначе интерфейс получит typed nil
	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			log.Error("NATS unavailable, notifications will be delivered locally", "error", err)
		} else {
			s.nats = natsClient
			deps.Publisher = natsClient
		}
	}

	if cfg.Valkey.Enabled {
		valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
		if err != nil {
			log.Error("Valkey unavailable, caching disabled", "error", err)
		} else {
			s.valkey = valkeyClient
			deps.EventCache = valkeyClient
			deps.AnalyticsCache = valkeyClient
		}
	}

	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Error("Elasticsearch unavailable, search falls back to database", "error", err)
		} else {
			s.search = esClient
			deps.Search = esClient
		}
	}

	s.services = service.NewServices(deps)

	if s.nats != nil {
		sub, err := s.nats.SubscribeEphemeral(models.SubjectNotificationDispatch, s.dispatchNotification)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		s.subs = append(s.subs, sub)
	}

	s.router = gin.New()
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS(cfg.AllowedOrigin))
	s.router.Use(middleware.Logger())
	s.router.Use(metrics.Middleware())

	s.setupRoutes()

	return s, nil
}

// dispatchNotification отдает уведомление из NATS локальному хабу
func (s *Server) dispatchNotification(m *stan.Msg) {
	var n models.Notification
	if err := json.Unmarshal(m.Data, &n); err != nil {
		logger.Get().Error("Failed to decode notification", "error", err)
		return
	}

	delivered := s.services.Notifications.Dispatch(&n)
	logger.Get().Debug("Notification dispatched", "kind", n.Kind, "audience", n.Audience, "sessions", delivered)
}

func (s *Server) healthChecks() []handlers.HealthCheck {
	checks := []handlers.HealthCheck{{Name: "database", Check: s.db.Ping}}

	if s.nats != nil {
		checks = append(checks, handlers.HealthCheck{Name: "nats", Check: s.nats.HealthCheck})
	}
	if s.search != nil {
		checks = append(checks, handlers.HealthCheck{Name: "elasticsearch", Check: s.search.HealthCheck})
	}
	return checks
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.hub, s.healthChecks()...)

	authRequired := middleware.AuthRequired(s.services.Auth)
	optionalAuth := middleware.OptionalAuth(s.services.Auth)
	adminOnly := middleware.AdminOnly()

	api := s.router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authRequired, h.Me)
		}

		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/calendar", h.Calendar)
			events.GET("/:id", h.GetEvent)
			events.POST("", authRequired, adminOnly, h.CreateEvent)
			events.PUT("/:id", authRequired, adminOnly, h.UpdateEvent)
			events.PATCH("/:id/status", authRequired, adminOnly, h.UpdateEventStatus)
			events.DELETE("/:id", authRequired, adminOnly, h.DeleteEvent)

			events.GET("/:id/reviews", h.ListReviews)
			events.POST("/:id/reviews", authRequired, h.CreateReview)

			events.POST("/:id/registrations", optionalAuth, h.CreateRegistration)
			events.GET("/:id/registrations", authRequired, adminOnly, h.ListEventRegistrations)

			events.GET("/:id/analytics", authRequired, adminOnly, h.GetEventAnalytics)
		}

		api.POST("/reviews/:id/response", authRequired, adminOnly, h.RespondToReview)

		// :code и :id делят один сегмент пути, поэтому параметр назван одинаково
		registrations := api.Group("/registrations")
		{
			registrations.GET("/me", authRequired, h.ListMyRegistrations)
			registrations.GET("/:code", h.GetRegistration)
			registrations.GET("/:code/qrcode", h.RegistrationQRCode)
			registrations.GET("/:code/ticket", h.RegistrationTicket)
			registrations.PATCH("/:code/check-in", authRequired, adminOnly, withParam("code", "id"), h.CheckIn)
			registrations.POST("/:code/refund", authRequired, adminOnly, withParam("code", "id"), h.RefundRegistration)
		}

		payments := api.Group("/payments")
		{
			payments.GET("/success", h.PaymentSuccess)
			payments.GET("/cancel", h.PaymentCancel)
			payments.POST("/webhook", h.PaymentWebhook)
		}

		notifications := api.Group("/notifications", authRequired)
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("", adminOnly, h.CreateNotification)
			notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
			notifications.PATCH("/:id/read", h.MarkNotificationRead)
		}

		api.GET("/admin/dashboard", authRequired, adminOnly, h.Dashboard)
		api.POST("/chat", h.Chat)
	}

	s.router.GET("/ws", h.WebSocket)
	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", metrics.Handler())
}

// withParam копирует параметр пути под другим именем для хендлеров, ожидающих :id
func withParam(from, to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: to, Value: c.Param(from)})
		c.Next()
	}
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() http.Handler {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	log := logger.Get()

	if s.hub != nil {
		s.hub.Close()
	}

	for _, sub := range s.subs {
		if err := sub.Close(); err != nil {
			log.Warn("Error closing NATS subscription", "error", err)
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
