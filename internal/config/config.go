// Package config loads service configuration from YAML, .env and KM_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Prices    []PriceSeed     `mapstructure:"prices"`
	Crops     []CropSeed      `mapstructure:"crops"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	BFF       BFFConfig       `mapstructure:"bff"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr          string        `mapstructure:"http_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ChatConfig controls how the rule responder renders replies.
type ChatConfig struct {
	Locale         string `mapstructure:"locale"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Matcher        string `mapstructure:"matcher"`
}

// PriceSeed is one row of the configured price catalogue. Price is kept as a
// string so values like "2350.50" survive YAML and env parsing exactly.
type PriceSeed struct {
	Commodity string `mapstructure:"commodity"`
	Price     string `mapstructure:"price"`
	Unit      string `mapstructure:"unit"`
	Market    string `mapstructure:"market"`
}

// CropSeed is one demo marketplace listing loaded into an empty crops table.
type CropSeed struct {
	Name         string `mapstructure:"name"`
	Category     string `mapstructure:"category"`
	Quantity     string `mapstructure:"quantity"`
	Unit         string `mapstructure:"unit"`
	PricePerUnit string `mapstructure:"price_per_unit"`
	Description  string `mapstructure:"description"`
	Location     string `mapstructure:"location"`
	Seller       string `mapstructure:"seller"`
}

type AdvisorConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
}

type WorkerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Limit    int           `mapstructure:"limit"`
	Window   time.Duration `mapstructure:"window"`
}

type BFFConfig struct {
	HTTPAddr   string        `mapstructure:"http_addr"`
	BackendURL string        `mapstructure:"backend_url"`
	StaticDir  string        `mapstructure:"static_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_header_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "kisanmandi.db")
	v.SetDefault("chat.locale", "en-IN")
	v.SetDefault("chat.currency_symbol", "₹")
	v.SetDefault("chat.matcher", "substring")
	v.SetDefault("prices", defaultPrices())
	v.SetDefault("crops", []map[string]any{})
	v.SetDefault("advisor.enabled", false)
	v.SetDefault("advisor.base_url", "https://api.openai.com/v1")
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.model", "gpt-3.5-turbo")
	v.SetDefault("advisor.timeout", "30s")
	v.SetDefault("advisor.max_retries", 3)
	v.SetDefault("advisor.retry_backoff", "500ms")
	v.SetDefault("advisor.temperature", 0.7)
	v.SetDefault("advisor.max_tokens", 500)
	v.SetDefault("worker.workers", 2)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.addr", "localhost:6379")
	v.SetDefault("rate_limit.password", "")
	v.SetDefault("rate_limit.db", 0)
	v.SetDefault("rate_limit.limit", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("bff.http_addr", ":3000")
	v.SetDefault("bff.backend_url", "http://localhost:8080")
	v.SetDefault("bff.static_dir", "web")
	v.SetDefault("bff.timeout", "15s")

	if err := v.BindEnv("advisor.api_key", "KM_ADVISOR_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, err
	}

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// PriceRows converts the configured seed into catalogue rows.
func (c Config) PriceRows() ([]domain.MarketPriceEntry, error) {
	rows := make([]domain.MarketPriceEntry, 0, len(c.Prices))
	for i, p := range c.Prices {
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return nil, fmt.Errorf("config: prices[%d] %q: %w", i, p.Commodity, err)
		}
		rows = append(rows, domain.MarketPriceEntry{
			Commodity:    p.Commodity,
			Price:        price,
			Unit:         p.Unit,
			SourceMarket: p.Market,
		})
	}
	return rows, nil
}

// CropRows converts the configured listings into marketplace crops.
func (c Config) CropRows() ([]domain.Crop, error) {
	rows := make([]domain.Crop, 0, len(c.Crops))
	for i, s := range c.Crops {
		quantity, err := decimal.NewFromString(strings.TrimSpace(s.Quantity))
		if err != nil {
			return nil, fmt.Errorf("config: crops[%d] %q quantity: %w", i, s.Name, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(s.PricePerUnit))
		if err != nil {
			return nil, fmt.Errorf("config: crops[%d] %q price_per_unit: %w", i, s.Name, err)
		}
		rows = append(rows, domain.Crop{
			Name:         s.Name,
			Category:     s.Category,
			Quantity:     quantity,
			Unit:         s.Unit,
			PricePerUnit: price,
			Description:  s.Description,
			Location:     s.Location,
			Seller:       s.Seller,
		})
	}
	return rows, nil
}

func defaultPrices() []map[string]any {
	rows := domain.DefaultPriceRows()
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"commodity": r.Commodity,
			"price":     r.Price.String(),
			"unit":      r.Unit,
			"market":    r.SourceMarket,
		})
	}
	return out
}
