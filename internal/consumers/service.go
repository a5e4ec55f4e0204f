package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"eventhive/internal/cache"
	"eventhive/internal/config"
	"eventhive/internal/database"
	"eventhive/internal/external"
	"eventhive/internal/messaging"
	"eventhive/internal/models"
	"eventhive/internal/repository"
	"eventhive/internal/service"
)

const queueGroup = "analytics"

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	repos    *repository.Repositories
	services *service.Services
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db)
	cs := &ConsumerService{db: db, nats: natsClient, repos: repos}

	deps := service.Dependencies{
		Repos:          repos,
		Publisher:      natsClient,
		Gateway:        external.NewCheckoutGateway(cfg.Payment),
		PendingTimeout: cfg.RegistrationPendingTimeout,
	}

	if cfg.Valkey.Enabled {
		valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
		if err != nil {
			slog.Error("Valkey unavailable, analytics cache will not be refreshed", "error", err)
		} else {
			cs.valkey = valkeyClient
			deps.EventCache = valkeyClient
			deps.AnalyticsCache = valkeyClient
		}
	}

	cs.services = service.NewServices(deps)
	cs.handlers = NewHandlers(cs.services.Analytics)
	return cs, nil
}

// Registrations - сервис регистраций для фоновых задач
func (cs *ConsumerService) Registrations() *service.RegistrationService {
	return cs.services.Registrations
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := []struct {
		subject string
		handler stan.MsgHandler
	}{
		{models.EventReviewCreated, cs.handlers.HandleReviewEvent},
		{models.EventReviewResponded, cs.handlers.HandleReviewEvent},
		{models.EventRegistrationCreated, cs.handlers.HandleRegistrationEvent},
		{models.EventRegistrationUpdated, cs.handlers.HandleRegistrationEvent},
	}

	for _, s := range subscriptions {
		sub, err := cs.nats.SubscribeQueue(s.subject, queueGroup, s.handler)
		if err != nil {
			return fmt.Errorf("failed to start consumer for %s: %w", s.subject, err)
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully", "subscriptions", len(cs.subs))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	// Close, не Unsubscribe: durable-очередь должна пережить перезапуск
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Warn("Error closing subscription", "error", err)
		}
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.valkey != nil {
		if err := cs.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return ctx.Err()
}
