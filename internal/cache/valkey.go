package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"eventhive/internal/models"
)

const (
	eventsListKey       = "events:list"
	analyticsKeyPrefix  = "analytics:summary:"
	defaultCacheTimeout = 60 * time.Second
)

type Config struct {
	Enabled  bool
	Addr     string
	Password string
	TTL      time.Duration
}

// ValkeyClient кеширует горячие чтения: страницы списка событий и сводки аналитики
type ValkeyClient struct {
	client rueidis.Client
	ttl    time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{cfg.Addr},
		Password:         cfg.Password,
		DisableCache:     true,
		ConnWriteTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTimeout
	}

	return &ValkeyClient{client: client, ttl: ttl}, nil
}

func pageField(page, pageSize int) string {
	return strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
}

// GetEventsPage возвращает закешированную страницу; ok=false при промахе
func (v *ValkeyClient) GetEventsPage(ctx context.Context, page, pageSize int) (*models.ListEventsResponse, bool, error) {
	data, err := v.client.Do(ctx, v.client.B().Hget().Key(eventsListKey).Field(pageField(page, pageSize)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup error: %w", err)
	}

	var resp models.ListEventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, fmt.Errorf("invalid events page in cache: %w", err)
	}
	return &resp, true, nil
}

func (v *ValkeyClient) SetEventsPage(ctx context.Context, resp *models.ListEventsResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal events page: %w", err)
	}

	cmds := rueidis.Commands{
		v.client.B().Hset().Key(eventsListKey).FieldValue().FieldValue(pageField(resp.Page, resp.PageSize), string(data)).Build(),
		v.client.B().Expire().Key(eventsListKey).Seconds(int64(v.ttl.Seconds())).Build(),
	}
	for _, res := range v.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("cache write error: %w", err)
		}
	}
	return nil
}

// InvalidateEvents сбрасывает все страницы после любой записи в events
func (v *ValkeyClient) InvalidateEvents(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(eventsListKey).Build()).Error(); err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) GetAnalytics(ctx context.Context, eventID int64) (*models.EventAnalytics, bool, error) {
	key := analyticsKeyPrefix + strconv.FormatInt(eventID, 10)
	data, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup error: %w", err)
	}

	var summary models.EventAnalytics
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("invalid analytics in cache: %w", err)
	}
	return &summary, true, nil
}

func (v *ValkeyClient) SetAnalytics(ctx context.Context, summary *models.EventAnalytics) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	key := analyticsKeyPrefix + strconv.FormatInt(summary.EventID, 10)
	cmd := v.client.B().Set().Key(key).Value(string(data)).Ex(v.ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache write error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) InvalidateAnalytics(ctx context.Context, eventID int64) error {
	key := analyticsKeyPrefix + strconv.FormatInt(eventID, 10)
	if err := v.client.Do(ctx, v.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) Close() error {
	v.client.Close()
	return nil
}
