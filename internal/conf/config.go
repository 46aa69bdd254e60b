package conf

import (
	"fmt"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/milvus"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/redis"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     redis.Config    `mapstructure:"redis"`
	Milvus    milvus.Config   `mapstructure:"milvus"`
	Log       logger.Config   `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	RAG       RAGConfig       `mapstructure:"rag"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SearchConfig holds per-provider credentials. A provider with no key stays
// silently disabled; DuckDuckGo is keyless and always enabled.
type SearchConfig struct {
	DuckDuckGoHost string `mapstructure:"duckduckgo_host"`

	GoogleAPIKey   string `mapstructure:"google_api_key"`
	GoogleEngineID string `mapstructure:"google_engine_id"`

	TavilyAPIKey string `mapstructure:"tavily_api_key"`

	SerpAPIKey string `mapstructure:"serpapi_api_key"`

	Timeout    int `mapstructure:"timeout"` // seconds
	MaxRetries int `mapstructure:"max_retries"`
}

type EmbeddingConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RAGConfig struct {
	Collection     string        `mapstructure:"collection"`
	ScoreThreshold float32       `mapstructure:"score_threshold"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ProviderConfigs derives the provider list from credential presence.
func (c *SearchConfig) ProviderConfigs() []*types.ProviderConfig {
	duckHost := c.DuckDuckGoHost
	if duckHost == "" {
		duckHost = "https://html.duckduckgo.com"
	}

	return []*types.ProviderConfig{
		{
			ID:         types.ProviderDuckDuckGo,
			Name:       "DuckDuckGo",
			APIHost:    duckHost,
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
		},
		{
			ID:         types.ProviderGoogle,
			Name:       "Google",
			APIHost:    "https://www.googleapis.com",
			APIKey:     c.GoogleAPIKey,
			EngineID:   c.GoogleEngineID,
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
		},
		{
			ID:         types.ProviderTavily,
			Name:       "Tavily",
			APIHost:    "https://api.tavily.com",
			APIKey:     c.TavilyAPIKey,
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
		},
		{
			ID:         types.ProviderSerpAPI,
			Name:       "Google (SerpAPI)",
			APIHost:    "https://serpapi.com",
			APIKey:     c.SerpAPIKey,
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
		},
	}
}
