package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GitHub    GitHubConfig    `yaml:"github"`
	Providers ProvidersConfig `yaml:"providers"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Batch     BatchConfig     `yaml:"batch"`
	Vector    VectorConfig    `yaml:"vector"`
	Notify    NotifyConfig    `yaml:"notify"`
	Store     StoreConfig     `yaml:"store"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GitHubConfig holds GitHub authentication and repository settings.
type GitHubConfig struct {
	Auth           string `yaml:"auth"` // "token" or "app"
	Token          string `yaml:"token"`
	AppID          string `yaml:"app_id"`
	InstallationID string `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
}

// FullName returns the owner/repo identifier.
func (g GitHubConfig) FullName() string {
	return g.Owner + "/" + g.Repo
}

// ProviderConfig holds settings for a single provider (embedding or LLM).
type ProviderConfig struct {
	Type   string `yaml:"type"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
	URL    string `yaml:"url"`
}

// ProvidersConfig groups embedding and LLM provider configs.
type ProvidersConfig struct {
	Embedding ProviderConfig `yaml:"embedding"`
	LLM       ProviderConfig `yaml:"llm"`
}

// AnalysisConfig holds LLM analysis tunables.
type AnalysisConfig struct {
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	AllowNewLabels    bool    `yaml:"allow_new_labels"`
	RequestTimeoutRaw string  `yaml:"request_timeout"`
	GitHubTimeoutRaw  string  `yaml:"github_timeout"`
}

// RequestTimeout returns the parsed LLM request timeout.
func (a AnalysisConfig) RequestTimeout() (time.Duration, error) {
	if a.RequestTimeoutRaw == "" {
		return 90 * time.Second, nil
	}
	return time.ParseDuration(a.RequestTimeoutRaw)
}

// GitHubTimeout returns the parsed GitHub request timeout.
func (a AnalysisConfig) GitHubTimeout() (time.Duration, error) {
	if a.GitHubTimeoutRaw == "" {
		return 15 * time.Second, nil
	}
	return time.ParseDuration(a.GitHubTimeoutRaw)
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// VectorConfig holds similarity search settings.
type VectorConfig struct {
	TopK int `yaml:"top_k"`
}

// NotifyConfig holds notification webhook URLs.
type NotifyConfig struct {
	SlackWebhook   string `yaml:"slack_webhook"`
	DiscordWebhook string `yaml:"discord_webhook"`
}

// StoreConfig holds storage settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.GitHub.Auth == "" {
		cfg.GitHub.Auth = "token"
	}
	if cfg.Analysis.MaxTokens == 0 {
		cfg.Analysis.MaxTokens = 4000
	}
	if cfg.Analysis.Temperature == 0 {
		cfg.Analysis.Temperature = 0.1
	}
	if cfg.Analysis.RequestTimeoutRaw == "" {
		cfg.Analysis.RequestTimeoutRaw = "90s"
	}
	if cfg.Analysis.GitHubTimeoutRaw == "" {
		cfg.Analysis.GitHubTimeoutRaw = "15s"
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 3
	}
	if cfg.Vector.TopK == 0 {
		cfg.Vector.TopK = 5
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.issuepilot/issuepilot.db"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.GitHub.Auth {
	case "token":
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("github.token is required when auth is %q", cfg.GitHub.Auth)
		}
	case "app":
		if cfg.GitHub.AppID == "" || cfg.GitHub.InstallationID == "" {
			return fmt.Errorf("github.app_id and github.installation_id are required when auth is %q", cfg.GitHub.Auth)
		}
	default:
		return fmt.Errorf("unsupported github auth mode: %q", cfg.GitHub.Auth)
	}

	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return fmt.Errorf("github.owner and github.repo are required")
	}

	if cfg.Analysis.Temperature < 0 || cfg.Analysis.Temperature > 1 {
		return fmt.Errorf("analysis temperature must be between 0 and 1, got %f", cfg.Analysis.Temperature)
	}
	if cfg.Analysis.MaxTokens < 1 {
		return fmt.Errorf("analysis max_tokens must be positive, got %d", cfg.Analysis.MaxTokens)
	}

	if _, err := time.ParseDuration(cfg.Analysis.RequestTimeoutRaw); err != nil {
		return fmt.Errorf("invalid request_timeout %q: %w", cfg.Analysis.RequestTimeoutRaw, err)
	}
	if _, err := time.ParseDuration(cfg.Analysis.GitHubTimeoutRaw); err != nil {
		return fmt.Errorf("invalid github_timeout %q: %w", cfg.Analysis.GitHubTimeoutRaw, err)
	}

	if cfg.Batch.Workers < 1 || cfg.Batch.Workers > 16 {
		return fmt.Errorf("batch workers must be between 1 and 16, got %d", cfg.Batch.Workers)
	}

	validEmbedTypes := map[string]bool{"openai": true, "ollama": true, "": true}
	if !validEmbedTypes[cfg.Providers.Embedding.Type] {
		return fmt.Errorf("unsupported embedding provider type: %s", cfg.Providers.Embedding.Type)
	}

	validLLMTypes := map[string]bool{"openai": true, "ollama": true, "anthropic": true, "": true}
	if !validLLMTypes[cfg.Providers.LLM.Type] {
		return fmt.Errorf("unsupported LLM provider type: %s", cfg.Providers.LLM.Type)
	}

	return nil
}
