package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/feedpulse/feedpulse/internal/models"
)

// Store backends, query strategies, and analyzer backends selectable by configuration.
const (
	StoreRedis         = "redis"
	StoreElasticsearch = "elasticsearch"
	StoreMemory        = "memory"

	StrategyScan    = "scan"
	StrategyIndexed = "indexed"

	AnalyzerHeuristic = "heuristic"
	AnalyzerRemote    = "remote"
)

// Common contains store parameters shared by every service.
type Common struct {
	StoreBackend       string
	RedisAddr          string
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Ingest holds configuration for the feed ingestion service.
type Ingest struct {
	Common
	BindAddr        string
	Sources         []models.SourceConfig
	CronSpec        string
	FetchTimeout    time.Duration
	PerSourceCap    int
	Workers         int
	RetentionWindow time.Duration
	TitleMaxRunes   int
	SummaryMaxRunes int

	AnalyzerBackend  string
	AnalyzerURL      string
	AnalyzerAPIKey   string
	AnalyzerTimeout  time.Duration
	AnalysisCacheCap int
	AnalysisCacheTTL time.Duration
}

// API describes HTTP-layer configuration for the query service.
type API struct {
	Common
	BindAddr      string
	QueryStrategy string
	ResultLimit   int
	LatestWindow  int
	SourceWindow  int
	SearchWindow  int
}

// Retention configures the expiry maintenance loop.
type Retention struct {
	Common
	Interval  time.Duration
	BatchSize int
}

// LoadIngest builds an Ingest config from environment variables.
func LoadIngest() (*Ingest, error) {
	c := &Ingest{
		Common:          loadCommon(),
		BindAddr:        getEnv("INGEST_BIND_ADDR", "0.0.0.0:8081"),
		CronSpec:        getEnv("INGEST_CRON", "@every 15m"),
		FetchTimeout:    getDuration("INGEST_FETCH_TIMEOUT", "10s"),
		PerSourceCap:    getInt("INGEST_SOURCE_CAP", 50),
		Workers:         getInt("INGEST_WORKERS", 8),
		RetentionWindow: getDuration("INGEST_RETENTION", "720h"),
		TitleMaxRunes:   getInt("INGEST_TITLE_MAX", 500),
		SummaryMaxRunes: getInt("INGEST_SUMMARY_MAX", 1000),

		AnalyzerBackend:  getEnv("ANALYZER_BACKEND", AnalyzerHeuristic),
		AnalyzerURL:      getEnv("ANALYZER_URL", ""),
		AnalyzerAPIKey:   getEnv("ANALYZER_API_KEY", ""),
		AnalyzerTimeout:  getDuration("ANALYZER_TIMEOUT", "15s"),
		AnalysisCacheCap: getInt("ANALYZER_CACHE_CAPACITY", 10000),
		AnalysisCacheTTL: getDuration("ANALYZER_CACHE_TTL", "6h"),
	}

	sources, err := parseSources(getEnv("SOURCES_JSON", "[]"))
	if err != nil {
		return nil, fmt.Errorf("parse SOURCES_JSON: %w", err)
	}
	c.Sources = sources

	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	if c.PerSourceCap <= 0 {
		return nil, fmt.Errorf("INGEST_SOURCE_CAP must be positive")
	}
	if c.Workers <= 0 {
		return nil, fmt.Errorf("INGEST_WORKERS must be positive")
	}
	if c.FetchTimeout <= 0 {
		return nil, fmt.Errorf("INGEST_FETCH_TIMEOUT must be positive")
	}
	if c.RetentionWindow <= 0 {
		return nil, fmt.Errorf("INGEST_RETENTION must be positive")
	}
	if c.TitleMaxRunes <= 0 {
		return nil, fmt.Errorf("INGEST_TITLE_MAX must be positive")
	}
	if c.SummaryMaxRunes <= 0 {
		return nil, fmt.Errorf("INGEST_SUMMARY_MAX must be positive")
	}

	switch c.AnalyzerBackend {
	case AnalyzerHeuristic:
	case AnalyzerRemote:
		if c.AnalyzerURL == "" {
			return nil, fmt.Errorf("ANALYZER_URL is required for the remote backend")
		}
	default:
		return nil, fmt.Errorf("unknown ANALYZER_BACKEND %q", c.AnalyzerBackend)
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:        loadCommon(),
		BindAddr:      getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		QueryStrategy: getEnv("QUERY_STRATEGY", StrategyScan),
		ResultLimit:   getInt("QUERY_RESULT_LIMIT", 25),
		LatestWindow:  getInt("QUERY_LATEST_WINDOW", 50),
		SourceWindow:  getInt("QUERY_SOURCE_WINDOW", 200),
		SearchWindow:  getInt("QUERY_SEARCH_WINDOW", 300),
	}

	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	if c.QueryStrategy != StrategyScan && c.QueryStrategy != StrategyIndexed {
		return nil, fmt.Errorf("unknown QUERY_STRATEGY %q", c.QueryStrategy)
	}
	if c.ResultLimit <= 0 {
		return nil, fmt.Errorf("QUERY_RESULT_LIMIT must be positive")
	}
	// A zero window disables the bound and scans the full corpus.
	if c.LatestWindow < 0 || c.SourceWindow < 0 || c.SearchWindow < 0 {
		return nil, fmt.Errorf("scan windows cannot be negative")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "1h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		StoreBackend:       getEnv("STORE_BACKEND", StoreRedis),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "documents"),
	}
}

func validateCommon(c Common) error {
	switch c.StoreBackend {
	case StoreRedis, StoreElasticsearch, StoreMemory:
		return nil
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
}

func parseSources(raw string) ([]models.SourceConfig, error) {
	var sources []models.SourceConfig
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return nil, err
	}

	out := sources[:0]
	for _, s := range sources {
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimSpace(s.URL)
		if s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("source entries need both name and url")
		}
		out = append(out, s)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}
