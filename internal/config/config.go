// Package config provides configuration management for the literature retrieval service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/literature-retrieval-service/internal/observability"
)

// Retrieval strategy names.
const (
	StrategyDirect = "direct"
	StrategyRemote = "remote"
	StrategyArXiv  = "arxiv"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LITSEARCH"

// Config holds all configuration for the literature retrieval service.
type Config struct {
	// Server contains HTTP/gRPC server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// CORS contains cross-origin settings for the browser UI.
	CORS CORSConfig `mapstructure:"cors"`
	// Retrieval selects and bounds the retrieval strategy.
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	// PubMed contains NCBI E-utilities settings for the direct strategy.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// Remote contains settings for the remote delegate strategy.
	Remote RemoteConfig `mapstructure:"remote"`
	// ArXiv contains arXiv query API settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// GRPCPort is the gRPC health server port (default: 9090).
	GRPCPort int `mapstructure:"grpc_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API ("*" for any).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RetrievalConfig holds strategy selection and request bounds.
type RetrievalConfig struct {
	// Strategy is the active retrieval strategy (direct, remote, arxiv).
	Strategy string `mapstructure:"strategy"`
	// DefaultMaxResults is used when a request does not specify a limit.
	DefaultMaxResults int `mapstructure:"default_max_results"`
	// MaxResultsLimit is the largest limit a request may ask for.
	MaxResultsLimit int `mapstructure:"max_results_limit"`
	// RequestTimeout bounds one retrieval call end to end.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PubMedConfig holds NCBI E-utilities settings.
type PubMedConfig struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the NCBI API key (loaded from LITSEARCH_PUBMED_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Tool identifies this application to NCBI.
	Tool string `mapstructure:"tool"`
	// Email is the contact address NCBI asks registered tools to send.
	Email string `mapstructure:"email"`
	// Sort is the esearch sort order.
	Sort string `mapstructure:"sort"`
	// MinRequestInterval is the minimum spacing between outbound calls.
	MinRequestInterval time.Duration `mapstructure:"min_request_interval"`
	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the number of transport retries on 429/5xx (0 disables).
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between transport retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// RemoteConfig holds settings for the remote delegate strategy.
type RemoteConfig struct {
	// BaseURL is the address of the delegate retrieval service.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MinRequestInterval is the minimum spacing between outbound calls.
	MinRequestInterval time.Duration `mapstructure:"min_request_interval"`
}

// ArXivConfig holds arXiv query API settings.
type ArXivConfig struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Sort is the sortBy parameter (relevance, lastUpdatedDate, submittedDate).
	Sort string `mapstructure:"sort"`
	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MinRequestInterval is the minimum spacing between outbound calls.
	MinRequestInterval time.Duration `mapstructure:"min_request_interval"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// GRPCAddress returns the gRPC server address.
func (c *ServerConfig) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads configuration from the given YAML file, then applies
// environment overrides. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/literature-retrieval-service")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found is OK, we'll use env vars and defaults
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" and never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.PubMed.APIKey = os.Getenv(EnvPrefix + "_PUBMED_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})

	// Retrieval defaults
	v.SetDefault("retrieval.strategy", StrategyDirect)
	v.SetDefault("retrieval.default_max_results", 10)
	v.SetDefault("retrieval.max_results_limit", 200)
	v.SetDefault("retrieval.request_timeout", "30s")

	// PubMed defaults
	// The API key is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.tool", "literature-retrieval-service")
	v.SetDefault("pubmed.email", "")
	v.SetDefault("pubmed.sort", "relevance")
	v.SetDefault("pubmed.min_request_interval", "350ms") // NCBI allows 3 req/sec without an API key
	v.SetDefault("pubmed.timeout", "30s")
	v.SetDefault("pubmed.max_retries", 0)
	v.SetDefault("pubmed.retry_delay", "1s")

	// Remote delegate defaults
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout", "60s")
	v.SetDefault("remote.min_request_interval", "0s")

	// arXiv defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.sort", "relevance")
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.min_request_interval", "3s") // arXiv asks for one call every three seconds
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if !observability.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate retrieval bounds
	if c.Retrieval.DefaultMaxResults <= 0 {
		return fmt.Errorf("retrieval default_max_results must be positive")
	}
	if c.Retrieval.MaxResultsLimit <= 0 {
		return fmt.Errorf("retrieval max_results_limit must be positive")
	}
	if c.Retrieval.DefaultMaxResults > c.Retrieval.MaxResultsLimit {
		return fmt.Errorf("retrieval default_max_results (%d) must be <= max_results_limit (%d)",
			c.Retrieval.DefaultMaxResults, c.Retrieval.MaxResultsLimit)
	}
	if c.Retrieval.RequestTimeout <= 0 {
		return fmt.Errorf("retrieval request_timeout must be positive")
	}

	if c.PubMed.MaxRetries < 0 {
		return fmt.Errorf("pubmed max_retries must not be negative")
	}
	if c.PubMed.MinRequestInterval < 0 {
		return fmt.Errorf("pubmed min_request_interval must not be negative")
	}

	switch c.Retrieval.Strategy {
	case StrategyDirect:
		if err := validateBaseURL("pubmed", c.PubMed.BaseURL); err != nil {
			return err
		}
	case StrategyRemote:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote base_url is required when retrieval strategy is %q", StrategyRemote)
		}
		if err := validateBaseURL("remote", c.Remote.BaseURL); err != nil {
			return err
		}
	case StrategyArXiv:
		if err := validateBaseURL("arxiv", c.ArXiv.BaseURL); err != nil {
			return err
		}
		switch c.ArXiv.Sort {
		case "relevance", "lastUpdatedDate", "submittedDate":
		default:
			return fmt.Errorf("invalid arxiv sort: %q", c.ArXiv.Sort)
		}
	default:
		return fmt.Errorf("unknown retrieval strategy: %q", c.Retrieval.Strategy)
	}

	return nil
}

func validateBaseURL(section, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s base_url must be an absolute URL: %q", section, raw)
	}
	return nil
}
