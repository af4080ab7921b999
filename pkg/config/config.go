package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Pipeline struct {
		Assets        []string      `yaml:"assets"`
		Interval      time.Duration `yaml:"interval"`
		LookbackHours int           `yaml:"lookback_hours"`
		Concurrency   int           `yaml:"concurrency"`
	} `yaml:"pipeline"`
	Birdeye struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		StreamEnabled  bool          `yaml:"stream_enabled"`
		Timeout        time.Duration `yaml:"timeout"`
		Rate           float64       `yaml:"rate"`
		Burst          float64       `yaml:"burst"`
		OverviewTTL    time.Duration `yaml:"overview_ttl"`
		PriceSeriesTTL time.Duration `yaml:"price_series_ttl"`
		Attempts       int           `yaml:"attempts"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"birdeye"`
	Market struct {
		PriceChangeThreshold float64 `yaml:"price_change_threshold"`
		VolumeSurgeThreshold float64 `yaml:"volume_surge_threshold"`
		BaseConfidence       float64 `yaml:"base_confidence"`
		PriceWeight          float64 `yaml:"price_weight"`
		VolumeWeight         float64 `yaml:"volume_weight"`
	} `yaml:"market"`
	Risk struct {
		MinLiquidityUSD   float64 `yaml:"min_liquidity_usd"`
		MinLiquidityRatio float64 `yaml:"min_liquidity_ratio"`
		Weights           struct {
			Liquidity  float64 `yaml:"liquidity"`
			Volatility float64 `yaml:"volatility"`
			Market     float64 `yaml:"market"`
			Technical  float64 `yaml:"technical"`
			Sentiment  float64 `yaml:"sentiment"`
		} `yaml:"weights"`
	} `yaml:"risk"`
	Execution struct {
		Enabled              bool          `yaml:"enabled"`
		MaxSlippage          float64       `yaml:"max_slippage"`
		MinExecutionInterval time.Duration `yaml:"min_execution_interval"`
		MaxPositionSize      float64       `yaml:"max_position_size"`
		MinPositionSize      float64       `yaml:"min_position_size"`
	} `yaml:"execution"`
	Narrator struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"narrator"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Secrets come from the environment in every deployment;
// the threshold overrides exist so a paper-trading instance can be
// tuned without editing the config file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BIRDEYE_API_KEY"); v != "" {
		c.Birdeye.APIKey = v
	}
	if v := os.Getenv("ASSETS"); v != "" {
		c.Pipeline.Assets = strings.Split(v, ",")
	}
	if v := os.Getenv("NARRATOR_SERVICE_URL"); v != "" {
		c.Narrator.ServiceURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v, err := floatEnv("PRICE_CHANGE_THRESHOLD"); err != nil {
		return nil, err
	} else if v != nil {
		c.Market.PriceChangeThreshold = *v
	}
	if v, err := floatEnv("VOLUME_SURGE_THRESHOLD"); err != nil {
		return nil, err
	} else if v != nil {
		c.Market.VolumeSurgeThreshold = *v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func floatEnv(key string) (*float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid decimal number, got %q", key, raw)
	}
	return &v, nil
}

func (c *Config) applyDefaults() {
	m := &c.Market
	if m.PriceChangeThreshold == 0 {
		m.PriceChangeThreshold = 0.05
	}
	if m.VolumeSurgeThreshold == 0 {
		m.VolumeSurgeThreshold = 1.0
	}
	if m.BaseConfidence == 0 {
		m.BaseConfidence = 0.5
	}
	if m.PriceWeight == 0 {
		m.PriceWeight = 0.3
	}
	if m.VolumeWeight == 0 {
		m.VolumeWeight = 0.2
	}

	r := &c.Risk
	if r.MinLiquidityUSD == 0 {
		r.MinLiquidityUSD = 10_000
	}
	if r.MinLiquidityRatio == 0 {
		r.MinLiquidityRatio = 0.1
	}
	w := &r.Weights
	if w.Liquidity == 0 && w.Volatility == 0 && w.Market == 0 && w.Technical == 0 && w.Sentiment == 0 {
		w.Liquidity, w.Volatility, w.Market, w.Technical, w.Sentiment = 0.30, 0.20, 0.15, 0.20, 0.15
	}

	e := &c.Execution
	if e.MaxSlippage == 0 {
		e.MaxSlippage = 0.02
	}
	if e.MinExecutionInterval == 0 {
		e.MinExecutionInterval = 5 * time.Minute
	}
	if e.MaxPositionSize == 0 {
		e.MaxPositionSize = 10
	}
	if e.MinPositionSize == 0 {
		e.MinPositionSize = 0.1
	}

	b := &c.Birdeye
	if b.BaseURL == "" {
		b.BaseURL = "https://public-api.birdeye.so"
	}
	if b.Timeout == 0 {
		b.Timeout = 10 * time.Second
	}
	if b.Rate == 0 {
		b.Rate = 10
	}
	if b.Burst == 0 {
		b.Burst = 15
	}
	if b.OverviewTTL == 0 {
		b.OverviewTTL = 30 * time.Second
	}
	if b.PriceSeriesTTL == 0 {
		b.PriceSeriesTTL = 5 * time.Minute
	}
	if b.Attempts == 0 {
		b.Attempts = 3
	}
	if b.ReconnectDelay == 0 {
		b.ReconnectDelay = 3 * time.Second
	}
	if b.PingInterval == 0 {
		b.PingInterval = 25 * time.Second
	}

	s := &c.Server
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 10 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}

	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			c.Redis.Host = "localhost"
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
	}

	p := &c.Pipeline
	if p.Interval == 0 {
		p.Interval = time.Minute
	}
	if p.LookbackHours == 0 {
		p.LookbackHours = 48
	}
	if p.Concurrency == 0 {
		p.Concurrency = 4
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Pipeline.Assets) == 0 {
		return fmt.Errorf("pipeline.assets cannot be empty")
	}
	if c.Birdeye.APIKey == "" {
		return fmt.Errorf("birdeye.api_key is required")
	}
	if c.Market.PriceChangeThreshold <= 0 {
		return fmt.Errorf("market.price_change_threshold must be greater than 0")
	}
	if c.Market.VolumeSurgeThreshold <= 0 {
		return fmt.Errorf("market.volume_surge_threshold must be greater than 0")
	}
	if c.Market.PriceWeight+c.Market.VolumeWeight > 1.0 {
		return fmt.Errorf("market: sum of weights must not exceed 1.0")
	}
	w := c.Risk.Weights
	if sum := w.Liquidity + w.Volatility + w.Market + w.Technical + w.Sentiment; sum > 1.0 {
		return fmt.Errorf("risk: sum of weights must not exceed 1.0, got %.2f", sum)
	}
	if c.Execution.MaxSlippage <= 0 || c.Execution.MaxSlippage > 1 {
		return fmt.Errorf("execution.max_slippage must be in (0, 1]")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
