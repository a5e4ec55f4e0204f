package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"

	"eventhive/internal/logger"
	"eventhive/internal/metrics"
)

// ErrConnectionLost - соединение со streaming-сервером потеряно, публикация бессмысленна
var ErrConnectionLost = errors.New("nats streaming connection lost")

// Publisher - то, что нужно сервисам от брокера
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type NATSClient struct {
	conn stan.Conn
	lost atomic.Bool
}

type Config struct {
	Enabled   bool
	URL       string
	ClusterID string
	ClientID  string
}

func NewNATSClient(cfg Config) (*NATSClient, error) {
	// Unique client ID, otherwise a second replica kicks the first one off the cluster
	uniqueClientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	nc := &NATSClient{}
	conn, err := stan.Connect(cfg.ClusterID, uniqueClientID,
		stan.NatsURL(cfg.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, reason error) {
			nc.lost.Store(true)
			logger.Get().Error("NATS Streaming connection lost", "error", reason)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}
	nc.conn = conn

	logger.Get().Info("Connected to NATS Streaming",
		"url", cfg.URL, "cluster", cfg.ClusterID, "client", uniqueClientID)

	return nc, nil
}

func (nc *NATSClient) Publish(subject string, data interface{}) error {
	if nc.lost.Load() {
		metrics.BrokerPublished.WithLabelValues(subject, "lost").Inc()
		return ErrConnectionLost
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := nc.conn.Publish(subject, payload); err != nil {
		metrics.BrokerPublished.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}

	metrics.BrokerPublished.WithLabelValues(subject, "ok").Inc()
	logger.Get().Debug("Published message", "subject", subject)
	return nil
}

// HealthCheck для /health: ошибка, если streaming-соединение потеряно
func (nc *NATSClient) HealthCheck(_ context.Context) error {
	if nc.lost.Load() {
		return ErrConnectionLost
	}
	if nc.conn.NatsConn() == nil || !nc.conn.NatsConn().IsConnected() {
		return errors.New("nats connection is not established")
	}
	return nil
}

// SubscribeEphemeral - подписка без durable-состояния, только новые сообщения.
// Нужна для рассылки уведомлений по всем репликам API.
func (nc *NATSClient) SubscribeEphemeral(subject string, handler stan.MsgHandler) (stan.Subscription, error) {
	sub, err := nc.conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	logger.Get().Info("Subscribed to subject", "subject", subject)
	return sub, nil
}

// SubscribeQueue распределяет сообщения между воркерами группы с ручным ack
func (nc *NATSClient) SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error) {
	sub, err := nc.conn.QueueSubscribe(subject, queue, handler,
		stan.DurableName(subject+"-"+queue+"-durable"),
		stan.SetManualAckMode(),
		stan.AckWait(30*time.Second),
		stan.MaxInflight(1))
	if err != nil {
		return nil, fmt.Errorf("failed to queue subscribe to subject %s: %w", subject, err)
	}

	logger.Get().Info("Subscribed to subject", "subject", subject, "queue", queue)
	return sub, nil
}

func (nc *NATSClient) Close() error {
	if nc.conn != nil {
		return nc.conn.Close()
	}
	return nil
}
