package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"jobhunt/internal/ai"
	"jobhunt/internal/fetcher"
	"jobhunt/internal/gsheet"
	"jobhunt/internal/notifier"
	"jobhunt/internal/prefill"
	"jobhunt/internal/scheduler"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置。
type Config struct {
	Database  DatabaseConfig        `yaml:"database"`
	Logging   LoggingConfig         `yaml:"logging"`
	Server    ServerConfig          `yaml:"server"`
	Pipeline  PipelineConfig        `yaml:"pipeline"`
	AI        ai.Config             `yaml:"ai"`
	Fetcher   fetcher.Config        `yaml:"fetcher"`
	Sheet     gsheet.Config         `yaml:"sheet"`
	Email     notifier.EmailConfig  `yaml:"email"`
	Notify    notifier.FilterConfig `yaml:"notify"`
	Scheduler scheduler.Config      `yaml:"scheduler"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PipelineConfig 控制阶段的分数线与简历来源。
type PipelineConfig struct {
	MinRelevanceScore int    `yaml:"min_relevance_score"`
	ResumePath        string `yaml:"resume_path"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/jobhunt.db"},
		Logging:  LoggingConfig{Level: "info"},
		Server:   ServerConfig{Addr: ":8080"},
		Pipeline: PipelineConfig{MinRelevanceScore: prefill.DefaultMinRelevanceScore, ResumePath: "data/my-resume.json"},
		AI:       ai.Config{Providers: ai.DefaultProviders()},
		Fetcher:  fetcher.Config{MaxPages: 20, Retries: 3, Backoff: "1s", RequestsPerSecond: 2},
		Sheet:    gsheet.Config{SheetName: "Jobs"},
		Scheduler: scheduler.Config{
			Timeout:   "10m",
			Schedules: scheduler.DefaultSchedules(),
		},
	}
}

// Load 依次读取 .env、CONFIG_FILE（默认 config.yaml，缺失时使用默认值）与环境变量覆盖项。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFile(path, os.LookupEnv)
}

// LoadFile 读取指定 YAML 文件并应用 lookup 提供的环境变量。
func LoadFile(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg, lookup)
	if cfg.Pipeline.MinRelevanceScore < 0 || cfg.Pipeline.MinRelevanceScore > 100 {
		return Config{}, fmt.Errorf("pipeline.min_relevance_score %d out of range 0-100", cfg.Pipeline.MinRelevanceScore)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DATABASE_PATH", &cfg.Database.Path)
	set("LOG_LEVEL", &cfg.Logging.Level)
	set("RESUME_PATH", &cfg.Pipeline.ResumePath)
	set("GEMINI_API_KEY", &cfg.AI.GeminiAPIKey)
	set("ANTHROPIC_API_KEY", &cfg.AI.AnthropicAPIKey)
	set("LOCAL_AI_BASE_URL", &cfg.AI.Local.BaseURL)
	set("RSS_ENDPOINT", &cfg.Fetcher.LinkedInEndpoint)
	set("LEVELS_ENDPOINT", &cfg.Fetcher.LevelsEndpoint)
	set("BUILTIN_ENDPOINT", &cfg.Fetcher.BuiltInEndpoint)
	set("GOOGLE_SPREADSHEET_ID", &cfg.Sheet.SpreadsheetID)
	set("GOOGLE_SHEET_NAME", &cfg.Sheet.SheetName)
	set("GOOGLE_CLIENT_EMAIL", &cfg.Sheet.ClientEmail)
	set("GOOGLE_PRIVATE_KEY", &cfg.Sheet.PrivateKey)
	cfg.Sheet.PrivateKey = strings.ReplaceAll(cfg.Sheet.PrivateKey, `\n`, "\n")
}
