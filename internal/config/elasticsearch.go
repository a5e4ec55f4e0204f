package config

import (
	"time"
)

// ElasticsearchConfig - полнотекстовый индекс событий
type ElasticsearchConfig struct {
	Enabled    bool
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
	// Refresh - политика refresh для записи: "wait_for" (событие сразу видно в поиске) или "false"
	Refresh string
}

func LoadElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		Enabled:    getEnvBool("ELASTICSEARCH_ENABLED", false),
		URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		Index:      getEnv("ELASTICSEARCH_INDEX", "eventhive-events"),
		Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
		Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
		MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
		Refresh:    getEnv("ELASTICSEARCH_REFRESH", "wait_for"),
	}
}
