package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"eventhive/internal/config"
	"eventhive/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchClient представляет клиент для полнотекстового поиска событий
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// NewElasticsearchClient создает новый клиент Elasticsearch
func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// indexMapping описывает индекс с английским анализатором
func indexMapping() map[string]interface{} {
	text := map[string]interface{}{
		"type":     "text",
		"analyzer": "event_analyzer",
	}
	keyword := map[string]interface{}{"type": "keyword"}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"event_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "english_stop", "english_stemmer"},
					},
				},
				"filter": map[string]interface{}{
					"english_stop": map[string]interface{}{
						"type":      "stop",
						"stopwords": "_english_",
					},
					"english_stemmer": map[string]interface{}{
						"type":     "stemmer",
						"language": "english",
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{"type": "long"},
				"title": map[string]interface{}{
					"type":     "text",
					"analyzer": "event_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"description": text,
				"location":    text,
				"category":    keyword,
				"status":      keyword,
				"date": map[string]interface{}{
					"type":   "date",
					"format": "yyyy-MM-dd",
				},
				"price":            map[string]interface{}{"type": "float"},
				"isPaid":           map[string]interface{}{"type": "boolean"},
				"ticketsAvailable": map[string]interface{}{"type": "integer"},
				"createdAt":        map[string]interface{}{"type": "date"},
				"updatedAt":        map[string]interface{}{"type": "date"},
			},
		},
	}
}

// EnsureIndex создает индекс если он не существует
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mappingJSON, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// RecreateIndex удаляет индекс и создает его заново
func (c *ElasticsearchClient) RecreateIndex(ctx context.Context) error {
	req := esapi.IndicesDeleteRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete index error: %s", res.String())
	}

	return c.EnsureIndex(ctx)
}

// Search выполняет поиск событий и возвращает их идентификаторы в порядке релевантности
func (c *ElasticsearchClient) Search(ctx context.Context, filter models.ListEventsFilter) ([]int64, error) {
	page, pageSize := filter.Page, filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	from := 0
	if page > 1 {
		from = (page - 1) * pageSize
	}

	searchRequest := map[string]interface{}{
		"query":   BuildQuery(filter),
		"sort":    buildSort(filter.Query),
		"from":    from,
		"size":    pageSize,
		"_source": []string{"id"},
	}

	searchJSON, err := json.Marshal(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(searchJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		ids[i] = hit.Source.ID
	}

	return ids, nil
}

// BuildQuery строит bool-запрос из фильтра списка событий
func BuildQuery(filter models.ListEventsFilter) map[string]interface{} {
	var must []map[string]interface{}
	var filters []map[string]interface{}

	if filter.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     filter.Query,
				"fields":    []string{"title^3", "description", "location^2"},
				"fuzziness": "AUTO",
			},
		})
	}

	if filter.Category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"category": filter.Category},
		})
	}

	if filter.Status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"status": filter.Status},
		})
	}

	if filter.Date != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"date": filter.Date},
		})
	}

	if len(must) == 0 && len(filters) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]interface{}{"bool": boolQuery}
}

func buildSort(query string) []map[string]interface{} {
	if query != "" {
		return []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"date": map[string]interface{}{"order": "asc"}},
		}
	}

	return []map[string]interface{}{
		{"date": map[string]interface{}{"order": "asc"}},
		{"id": map[string]interface{}{"order": "asc"}},
	}
}

// IndexEvent индексирует событие
func (c *ElasticsearchClient) IndexEvent(ctx context.Context, event *models.Event) error {
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(event.ID, 10),
		Body:       bytes.NewReader(eventJSON),
		Refresh:    c.config.Refresh,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// DeleteEvent удаляет событие
func (c *ElasticsearchClient) DeleteEvent(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    c.config.Refresh,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}

	return nil
}

// Refresh делает проиндексированные документы видимыми для поиска
func (c *ElasticsearchClient) Refresh(ctx context.Context) error {
	req := esapi.IndicesRefreshRequest{Index: []string{c.config.Index}}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("refresh error: %s", res.String())
	}
	return nil
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}

	return nil
}
