package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	JWTSecret        string           `json:"jwt_secret"`
	CORSAllowlist    []string         `json:"cors_allowlist"`
	RateLimitSeconds int              `json:"rate_limit_seconds"`
	Database         DatabaseConfig   `json:"database"`
	AI               AIConfig         `json:"ai"`
	Retrieval        RetrievalConfig  `json:"retrieval"`
	Lifecycle        LifecycleConfig  `json:"lifecycle"`
	FileStore        FileStoreConfig  `json:"file_store"`
	LogConfig        logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	FastModel      string      `json:"fast_model"`
	DeepProvider   string      `json:"deep_provider"`
	DeepData       interface{} `json:"deep_data"`
	DeepModel      string      `json:"deep_model"`
	EmbedProvider  string      `json:"embed_provider"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedModel     string      `json:"embed_model"`
	EmbedDim       int         `json:"embed_dim"`
	TimeoutSeconds int         `json:"timeout_seconds"`

	// Optional second embedding backend tried when the primary fails.
	EmbedFallbackProvider string      `json:"embed_fallback_provider"`
	EmbedFallbackData     interface{} `json:"embed_fallback_data"`
	EmbedFallbackModel    string      `json:"embed_fallback_model"`
}

type RetrievalConfig struct {
	TopN int `json:"top_n"`
}

type LifecycleConfig struct {
	TempRetentionMinutes int    `json:"temp_retention_minutes"`
	SweepCron            string `json:"sweep_cron"`
	BackfillCron         string `json:"backfill_cron"`
	SentinelPath         string `json:"sentinel_path"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 1536
	}
	if cfg.AI.FastModel == "" {
		return nil, fmt.Errorf("ai.fast_model is required")
	}
	if cfg.AI.DeepModel == "" {
		cfg.AI.DeepModel = cfg.AI.FastModel
	}
	if cfg.AI.DeepProvider == "" {
		cfg.AI.DeepProvider = cfg.AI.Provider
	}
	if cfg.AI.DeepData == nil {
		cfg.AI.DeepData = cfg.AI.Data
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.Retrieval.TopN == 0 {
		cfg.Retrieval.TopN = 5
	}
	if cfg.Lifecycle.TempRetentionMinutes == 0 {
		cfg.Lifecycle.TempRetentionMinutes = 120
	}
	if cfg.Lifecycle.SweepCron == "" {
		cfg.Lifecycle.SweepCron = "*/30 * * * *"
	}
	if cfg.Lifecycle.BackfillCron == "" {
		cfg.Lifecycle.BackfillCron = "* * * * *"
	}
	if cfg.Lifecycle.SentinelPath == "" {
		cfg.Lifecycle.SentinelPath = "./studybot.shutdown"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		if cfg.FileStore.Data == nil {
			cfg.FileStore.Data = map[string]interface{}{"dir": "./uploads"}
		}
	}
	return &cfg, nil
}
