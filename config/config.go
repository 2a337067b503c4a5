package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the service needs. It is built once at startup
// and handed to each component by value; nothing reads it from globals.
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Weather     ProviderConfig   `yaml:"weather"`
	Attractions AttractionConfig `yaml:"attractions"`
	LLM         LLMConfig        `yaml:"llm"`
	Log         LogConfig        `yaml:"log"`
	PDF         PDFConfig        `yaml:"pdf"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProviderConfig describes a keyed HTTP data provider.
type ProviderConfig struct {
	APIKey         string `yaml:"api_key"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type AttractionConfig struct {
	ProviderConfig `yaml:",inline"`
	MaxResults     int `yaml:"max_results"`
}

// LLMConfig points at an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RPM            int     `yaml:"rpm"` // 0 disables limiting
}

func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type PDFConfig struct {
	// FontPath is a TrueType font with CJK coverage. Without it the PDF
	// export falls back to the core Helvetica font and rejects Chinese plans.
	FontPath string `yaml:"font_path"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:    "8000",
			GinMode: "debug",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Weather: ProviderConfig{
			URL:            "http://apis.juhe.cn/simpleWeather/query",
			TimeoutSeconds: 10,
		},
		Attractions: AttractionConfig{
			ProviderConfig: ProviderConfig{
				URL:            "http://apis.juhe.cn/fapigx/scenic/query",
				TimeoutSeconds: 10,
			},
			MaxResults: 6,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			Temperature:    0.7,
			MaxTokens:      4000,
			TimeoutSeconds: 60,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file and finally the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env is optional; production sets real environment variables.
	_ = godotenv.Load()

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Weather.APIKey = getEnv("WEATHER_API_KEY", cfg.Weather.APIKey)
	cfg.Attractions.APIKey = getEnv("MAP_API_KEY", cfg.Attractions.APIKey)
	cfg.LLM.APIKey = getEnv("DEEPSEEK_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("DEEPSEEK_API_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("DEEPSEEK_MODEL", cfg.LLM.Model)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.PDF.FontPath = getEnv("PDF_FONT_PATH", cfg.PDF.FontPath)

	if n, err := strconv.Atoi(os.Getenv("MAX_ATTRACTIONS")); err == nil {
		cfg.Attractions.MaxResults = n
	}

	// FRONTEND_URL adds origins on top of the configured ones.
	if urls := os.Getenv("FRONTEND_URL"); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, u)
			}
		}
	}
}

// Validate rejects settings that would make a component unusable.
func (c Config) Validate() error {
	if c.Weather.TimeoutSeconds <= 0 {
		return fmt.Errorf("weather.timeout_seconds must be positive, got %d", c.Weather.TimeoutSeconds)
	}
	if c.Attractions.TimeoutSeconds <= 0 {
		return fmt.Errorf("attractions.timeout_seconds must be positive, got %d", c.Attractions.TimeoutSeconds)
	}
	if c.Attractions.MaxResults <= 0 {
		return fmt.Errorf("attractions.max_results must be positive, got %d", c.Attractions.MaxResults)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.RPM < 0 {
		return fmt.Errorf("llm.rpm must not be negative, got %d", c.LLM.RPM)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
