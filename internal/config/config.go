package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

// Config captures the settings required to boot the orchestrator. It is read
// once at startup and immutable afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Media     MediaConfig     `yaml:"media"`
	Agents    AgentsConfig    `yaml:"agents"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Results   ResultsConfig   `yaml:"results"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// MediaConfig controls upload handling.
type MediaConfig struct {
	TempDir        string `yaml:"tempDir"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

// AgentsConfig groups the analysis agent fleet.
type AgentsConfig struct {
	CallTimeout      time.Duration                  `yaml:"callTimeout"`
	DispatchDeadline time.Duration                  `yaml:"dispatchDeadline"`
	Endpoints        map[string]AgentEndpointConfig `yaml:"endpoints"`
}

// AgentEndpointConfig configures one agent service.
type AgentEndpointConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// ConsensusConfig controls the weighted aggregation.
type ConsensusConfig struct {
	Weights    map[string]float64 `yaml:"weights"`
	MaxReasons int                `yaml:"maxReasons"`
}

// ResultsConfig controls the Valkey-backed result store.
type ResultsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	TTL          time.Duration `yaml:"ttl"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TRUTHNET_ORCH_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	weights := models.DefaultWeights()
	weightMap := make(map[string]float64, len(weights))
	for agent, weight := range weights {
		weightMap[string(agent)] = weight
	}

	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Media: MediaConfig{
			TempDir:        "./tmp/media",
			MaxUploadBytes: 100 << 20,
		},
		Agents: AgentsConfig{
			CallTimeout:      30 * time.Second,
			DispatchDeadline: 45 * time.Second,
			Endpoints: map[string]AgentEndpointConfig{
				string(models.AgentTypeVisual):   {URL: "http://localhost:8001", Enabled: true},
				string(models.AgentTypeMetadata): {URL: "http://localhost:8002", Enabled: true},
				string(models.AgentTypeAudio):    {URL: "http://localhost:8003", Enabled: false},
				string(models.AgentTypeLipsync):  {URL: "http://localhost:8004", Enabled: false},
			},
		},
		Consensus: ConsensusConfig{
			Weights:    weightMap,
			MaxReasons: 5,
		},
		Results: ResultsConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			TTL:          24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func (c *Config) validate() error {
	if _, err := c.AgentWeights(); err != nil {
		return err
	}
	if c.Consensus.MaxReasons <= 0 {
		return fmt.Errorf("consensus.maxReasons must be positive")
	}
	for name := range c.Agents.Endpoints {
		if !models.AgentType(name).Valid() {
			return fmt.Errorf("unknown agent type %q in agents.endpoints", name)
		}
	}
	return nil
}

// AgentWeights converts the configured weight map into the domain value object.
func (c *Config) AgentWeights() (models.AgentWeights, error) {
	weights := make(models.AgentWeights, len(c.Consensus.Weights))
	for name, weight := range c.Consensus.Weights {
		weights[models.AgentType(name)] = weight
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("consensus.weights: %w", err)
	}
	return weights, nil
}

// EnabledAgents returns the enabled agent types in deterministic order.
func (c *Config) EnabledAgents() []models.AgentType {
	agents := make([]models.AgentType, 0, len(c.Agents.Endpoints))
	for name, endpoint := range c.Agents.Endpoints {
		if endpoint.Enabled && endpoint.URL != "" {
			agents = append(agents, models.AgentType(name))
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	return agents
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRUTHNET_ORCH_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_MEDIA_TEMP_DIR"); v != "" {
		cfg.Media.TempDir = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_MEDIA_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Media.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_AGENT_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agents.CallTimeout = d
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_DISPATCH_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agents.DispatchDeadline = d
		}
	}
	for _, agent := range []string{"visual", "metadata", "audio", "lipsync"} {
		prefix := "TRUTHNET_ORCH_AGENT_" + strings.ToUpper(agent)
		endpoint := cfg.Agents.Endpoints[agent]
		changed := false
		if v := os.Getenv(prefix + "_URL"); v != "" {
			endpoint.URL = v
			changed = true
		}
		if v := os.Getenv(prefix + "_ENABLED"); v != "" {
			endpoint.Enabled = strings.EqualFold(v, "true") || v == "1"
			changed = true
		}
		if changed {
			if cfg.Agents.Endpoints == nil {
				cfg.Agents.Endpoints = make(map[string]AgentEndpointConfig)
			}
			cfg.Agents.Endpoints[agent] = endpoint
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_MAX_REASONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Consensus.MaxReasons = n
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_ENABLED"); v != "" {
		cfg.Results.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_ADDR"); v != "" {
		cfg.Results.Addr = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_USERNAME"); v != "" {
		cfg.Results.Username = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_PASSWORD"); v != "" {
		cfg.Results.Password = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Results.DB = db
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Results.TLS = true
	}
	if v := os.Getenv("TRUTHNET_ORCH_RESULTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Results.TTL = d
		}
	}
	if v := os.Getenv("TRUTHNET_ORCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRUTHNET_ORCH_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}
