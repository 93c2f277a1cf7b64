package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// AllowedModels is the fixed Vertex model allow-list enforced by the
// swap-face and virtual-reshoot endpoints. It is not configurable.
var AllowedModels = []string{"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"}

// Config captures the runtime configuration for the studio service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RateLimits    RateLimitConfig     `mapstructure:"rate_limits"`
	Idempotency   IdempotencyConfig   `mapstructure:"idempotency"`
	Providers     ProviderConfig      `mapstructure:"providers"`
	FaceSwap      FaceSwapConfig      `mapstructure:"faceswap"`
	Fetch         FetchConfig         `mapstructure:"fetch"`
	Models        ModelsConfig        `mapstructure:"models"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Health        HealthConfig        `mapstructure:"health"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	Port                  string        `mapstructure:"port"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	ProviderTimeout       time.Duration `mapstructure:"provider_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
	CORSAllowOrigins      string        `mapstructure:"cors_allow_origins"`
}

// Addr resolves the listen address, preferring a bare PORT when the hosting
// platform injects one.
func (s ServerConfig) Addr() string {
	if port := strings.TrimSpace(s.Port); port != "" {
		return ":" + strings.TrimPrefix(port, ":")
	}
	return s.ListenAddr
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	ParallelRequests  int `mapstructure:"parallel_requests"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ProviderConfig struct {
	AIKey                 string `mapstructure:"ai_key"`
	GeminiModel           string `mapstructure:"gemini_model"`
	VertexProjectID       string `mapstructure:"vertex_project_id"`
	VertexLocation        string `mapstructure:"vertex_location"`
	VertexEndpoint        string `mapstructure:"vertex_endpoint"`
	GoogleCredentialsFile string `mapstructure:"google_application_credentials"`
	VertexCredentialsB64  string `mapstructure:"vertex_credentials_base64"`
}

// VertexConfigured reports whether enough Vertex settings exist to attempt a call.
func (p ProviderConfig) VertexConfigured() bool {
	return strings.TrimSpace(p.VertexProjectID) != ""
}

type FaceSwapConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBytes     int64         `mapstructure:"max_bytes"`
	AllowedHosts []string      `mapstructure:"allowed_hosts"`
}

// ModelsConfig picks the model used when a request names none.
type ModelsConfig struct {
	Default string `mapstructure:"default"`
}

// IsAllowed reports whether model is on the allow-list.
func (ModelsConfig) IsAllowed(model string) bool {
	return slices.Contains(AllowedModels, model)
}

// Allowed returns a copy of the allow-list.
func (ModelsConfig) Allowed() []string {
	return slices.Clone(AllowedModels)
}

type GenerationConfig struct {
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            float32 `mapstructure:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
}

type ArchiveConfig struct {
	Enabled       bool               `mapstructure:"enabled"`
	Storage       string             `mapstructure:"storage"`
	EncryptionKey string             `mapstructure:"encryption_key"`
	S3            ArchiveS3Config    `mapstructure:"s3"`
	Local         ArchiveLocalConfig `mapstructure:"local"`
}

type ArchiveS3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type ArchiveLocalConfig struct {
	Directory string `mapstructure:"directory"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// envAliases maps config keys onto the bare environment variable names the
// serverless deployment used.
var envAliases = map[string][]string{
	"server.port":                              {"PORT"},
	"redis.url":                                {"REDIS_URL"},
	"providers.ai_key":                         {"AI_KEY"},
	"providers.vertex_project_id":              {"VERTEX_AI_PROJECT_ID"},
	"providers.vertex_location":                {"VERTEX_AI_LOCATION"},
	"providers.google_application_credentials": {"GOOGLE_APPLICATION_CREDENTIALS"},
	"providers.vertex_credentials_base64":      {"VERTEX_AI_CREDENTIALS_BASE64"},
	"faceswap.url":                             {"FACESWAP_API_URL"},
	"faceswap.api_key":                         {"FACESWAP_API_KEY"},
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg := os.Getenv("STUDIO_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}

	if !explicitFile {
		v.SetConfigName("studio")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, "STUDIO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeStringToDurationHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises defaults and rejects impossible values. Missing provider
// credentials are not checked here; they surface per request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" && strings.TrimSpace(c.Server.Port) == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.BodyLimitMB < 0 {
		return fmt.Errorf("server.body_limit_mb must be >= 0")
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 25
	}
	if c.Server.ProviderTimeout <= 0 {
		c.Server.ProviderTimeout = 120 * time.Second
	}
	if strings.TrimSpace(c.Server.CORSAllowOrigins) == "" {
		c.Server.CORSAllowOrigins = "*"
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.RateLimits.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limits.requests_per_minute must be >= 0")
	}
	if c.RateLimits.ParallelRequests < 0 {
		return fmt.Errorf("rate_limits.parallel_requests must be >= 0")
	}
	if c.Idempotency.TTL <= 0 {
		c.Idempotency.TTL = 30 * time.Minute
	}

	if strings.TrimSpace(c.Providers.VertexLocation) == "" {
		c.Providers.VertexLocation = "us-central1"
	}
	if strings.TrimSpace(c.Providers.GeminiModel) == "" {
		c.Providers.GeminiModel = "gemini-1.5-flash"
	}
	if c.FaceSwap.Timeout <= 0 {
		c.FaceSwap.Timeout = 90 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 20 * time.Second
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 20 << 20
	}
	c.Fetch.AllowedHosts = normalizeStringSlice(c.Fetch.AllowedHosts)

	c.Models.Default = strings.TrimSpace(c.Models.Default)
	if c.Models.Default == "" {
		c.Models.Default = AllowedModels[0]
	}
	if !c.Models.IsAllowed(c.Models.Default) {
		return fmt.Errorf("models.default %q must be one of %s", c.Models.Default, strings.Join(AllowedModels, ", "))
	}

	if c.Generation.Temperature < 0 || c.Generation.TopP < 0 || c.Generation.TopK < 0 {
		return fmt.Errorf("generation parameters must be >= 0")
	}
	if c.Generation.MaxOutputTokens <= 0 {
		c.Generation.MaxOutputTokens = 2048
	}
	if c.Health.CheckInterval <= 0 {
		c.Health.CheckInterval = 30 * time.Second
	}
	if c.Health.Timeout <= 0 {
		c.Health.Timeout = 2 * time.Second
	}
	if c.Health.Timeout > c.Health.CheckInterval {
		c.Health.Timeout = c.Health.CheckInterval
	}

	return c.Archive.validate()
}

func (a *ArchiveConfig) validate() error {
	a.Storage = strings.ToLower(strings.TrimSpace(a.Storage))
	if a.Storage == "" {
		a.Storage = "local"
	}
	switch a.Storage {
	case "local":
		if strings.TrimSpace(a.Local.Directory) == "" {
			a.Local.Directory = "./data/generations"
		}
	case "s3":
		if a.Enabled && strings.TrimSpace(a.S3.Bucket) == "" {
			return fmt.Errorf("archive.s3.bucket must be provided when archive.storage is s3")
		}
	default:
		return fmt.Errorf("archive.storage must be local or s3")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 25)
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.provider_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")
	v.SetDefault("server.cors_allow_origins", "*")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rate_limits.requests_per_minute", 60)
	v.SetDefault("rate_limits.parallel_requests", 4)

	v.SetDefault("idempotency.ttl", "30m")

	v.SetDefault("providers.gemini_model", "gemini-1.5-flash")
	v.SetDefault("providers.vertex_location", "us-central1")

	v.SetDefault("faceswap.timeout", "90s")

	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.max_bytes", 20<<20)

	v.SetDefault("models.default", "gemini-2.0-flash")

	v.SetDefault("generation.temperature", 0.4)
	v.SetDefault("generation.top_p", 0.95)
	v.SetDefault("generation.top_k", 32)
	v.SetDefault("generation.max_output_tokens", 2048)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.storage", "local")
	v.SetDefault("archive.local.directory", "./data/generations")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("health.check_interval", "30s")
	v.SetDefault("health.timeout", "2s")
}

func normalizeStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}

const redacted = "[redacted]"

// Redacted returns a copy of c with credentials masked, for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	out := c
	out.Providers.AIKey = mask(c.Providers.AIKey)
	out.Providers.VertexCredentialsB64 = mask(c.Providers.VertexCredentialsB64)
	out.FaceSwap.APIKey = mask(c.FaceSwap.APIKey)
	out.Archive.EncryptionKey = mask(c.Archive.EncryptionKey)
	out.Archive.S3.AccessKeyID = mask(c.Archive.S3.AccessKeyID)
	out.Archive.S3.SecretAccessKey = mask(c.Archive.S3.SecretAccessKey)
	out.Redis.URL = redactURL(c.Redis.URL)
	out.Fetch.AllowedHosts = slices.Clone(c.Fetch.AllowedHosts)
	return out
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
