// Package config loads and validates the update service's configuration:
// environment-driven connection settings for Mongo, Redis, the two storage
// backends, the job queue, the two transport ports, and the OpenID
// introspection endpoint, plus the ambient logging/telemetry/metrics stack.
//
// Configuration sources (in order of precedence):
//  1. Environment variables — the deployment's literal names
//     (MONGODB_URI, REDIS_HOST, GRPC_PORT, ...) plus this service's own
//     UPDATESVC_-prefixed variables for the ambient stack.
//  2. A YAML configuration file (optional).
//  3. Default values (lowest priority).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nextmu/updateservice/internal/bytesize"
	"github.com/nextmu/updateservice/pkg/domain"
)

// Config is the update service's complete static configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	GRPCPort int `mapstructure:"grpc_port" validate:"required,min=1,max=65535" yaml:"grpc_port"`
	APIPort  int `mapstructure:"api_port" validate:"required,min=1,max=65535" yaml:"api_port"`

	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`

	Queue QueueConfig `mapstructure:"queue" yaml:"queue"`

	Input  StorageConfig `mapstructure:"input" yaml:"input"`
	Output StorageConfig `mapstructure:"output" yaml:"output"`

	OpenID OpenIDConfig `mapstructure:"openid" yaml:"openid"`
}

// LoggingConfig controls logging behavior; see internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool             `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string           `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool             `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64          `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig  `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// MongoConfig configures the catalog store connection.
type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required" yaml:"uri"`
	Database string `mapstructure:"database" validate:"required" yaml:"database"`
}

// RedisConfig configures the shared Redis connection backing the manifest
// cache and the job queue.
type RedisConfig struct {
	Host string `mapstructure:"host" validate:"required" yaml:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
	User string `mapstructure:"user" yaml:"user,omitempty"`
	Pass string `mapstructure:"pass" yaml:"pass,omitempty"`
	SSL  bool   `mapstructure:"ssl" yaml:"ssl"`
}

// Addr returns the host:port dial address.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// QueueConfig configures the job queue.
type QueueConfig struct {
	// Name is the Redis key namespace the queue's lists/hashes/sets live
	// under (UPDATES_QUEUE_NAME).
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Workers is the number of worker goroutines leasing jobs
	// (UPDATES_QUEUE_PROCESS). Workers run iff Workers >= 1; a value of 0
	// means this process only enqueues, it never drains the queue.
	Workers int `mapstructure:"workers" validate:"gte=0" yaml:"workers"`
}

// StorageProvider is the wire-level name for a storage.Kind: the literal
// {local, aws, gcp} values {INPUT,OUTPUT}_STORAGE_PROVIDER accepts.
type StorageProvider string

const (
	StorageLocal StorageProvider = "local"
	StorageAWS   StorageProvider = "aws"
	StorageGCP   StorageProvider = "gcp"
)

// StorageConfig configures one of the two named storage backends (Input or
// Output).
type StorageConfig struct {
	Provider StorageProvider `mapstructure:"provider" validate:"required,oneof=local aws gcp" yaml:"provider"`
	Bucket   string          `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Subpath  string          `mapstructure:"subpath" yaml:"subpath,omitempty"`

	// Local-only root (falls back to Subpath when unset).
	RootDir string `mapstructure:"root_dir" yaml:"root_dir,omitempty"`

	// AWS-specific credentials, read from provider-specific env vars.
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`

	// PartSize is the multipart upload part size / threshold for the aws
	// provider, accepted in human-readable form ("8Mi"). Zero keeps the
	// backend's default.
	PartSize bytesize.ByteSize `mapstructure:"part_size" yaml:"part_size,omitempty"`

	// GCP-specific credentials.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
}

// OpenIDConfig configures the external OAuth token-introspection
// collaborator used by the auth middleware.
type OpenIDConfig struct {
	IntrospectionURL string `mapstructure:"introspection_url" validate:"required" yaml:"introspection_url"`
	ClientID         string `mapstructure:"client_id" validate:"required" yaml:"client_id"`
	ClientSecret     string `mapstructure:"client_secret" yaml:"client_secret,omitempty"`

	// CacheTTLFloor bounds how long an introspection result is cached in
	// Redis when the token carries no readable `exp` claim.
	CacheTTLFloor time.Duration `mapstructure:"cache_ttl_floor" yaml:"cache_ttl_floor"`
}

// Load reads configuration from an optional YAML file, environment
// variables, and defaults, then validates it. An empty configPath skips the
// file and relies on defaults + environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	bindLiteralEnvVars(v)

	found, err := readConfigFile(v, configPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	} else {
		applyLiteralEnvOverrides(v, cfg)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and exits non-zero on failure, so a
// misconfigured deployment dies at startup instead of at first use.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return validateUploadBounds()
}

// validateUploadBounds double-checks that the chunk/file size constants in
// pkg/domain are internally consistent. They are compile-time constants,
// not environment-configurable, but are re-checked here so a future edit to
// them still fails fast at startup rather than at the first StartUpload
// call.
func validateUploadBounds() error {
	if !domain.IsPowerOfTwo(domain.MinChunkSize) || !domain.IsPowerOfTwo(domain.MaxChunkSize) {
		return fmt.Errorf("config: chunk size bounds must be powers of two")
	}
	if domain.MinChunkSize > domain.MaxChunkSize {
		return fmt.Errorf("config: MinChunkSize must be <= MaxChunkSize")
	}
	if domain.MinFileSize > domain.MaxFileSize {
		return fmt.Errorf("config: MinFileSize must be <= MaxFileSize")
	}
	return nil
}

// setupViper wires environment variable and config-file search behavior.
// The app's own ambient settings (logging, telemetry, metrics, shutdown
// timeout) use the UPDATESVC_ prefix; the deployment's literal names are bound
// separately in bindLiteralEnvVars since they don't share that prefix.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("UPDATESVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindLiteralEnvVars binds the deployment's literal environment variable
// names, which don't carry the application's own prefix.
func bindLiteralEnvVars(v *viper.Viper) {
	_ = v.BindEnv("grpc_port", "GRPC_PORT")
	_ = v.BindEnv("api_port", "API_PORT")
	_ = v.BindEnv("mongo.uri", "MONGODB_URI")
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.user", "REDIS_USER")
	_ = v.BindEnv("redis.pass", "REDIS_PASS")
	_ = v.BindEnv("redis.ssl", "REDIS_SSL")
	_ = v.BindEnv("queue.name", "UPDATES_QUEUE_NAME")
	_ = v.BindEnv("queue.workers", "UPDATES_QUEUE_PROCESS")
	_ = v.BindEnv("input.provider", "INPUT_STORAGE_PROVIDER")
	_ = v.BindEnv("input.bucket", "INPUT_STORAGE_BUCKET")
	_ = v.BindEnv("input.subpath", "INPUT_STORAGE_SUBPATH")
	_ = v.BindEnv("output.provider", "OUTPUT_STORAGE_PROVIDER")
	_ = v.BindEnv("output.bucket", "OUTPUT_STORAGE_BUCKET")
	_ = v.BindEnv("output.subpath", "OUTPUT_STORAGE_SUBPATH")
	_ = v.BindEnv("openid.introspection_url", "OPENID_INTROSPECTION_URL")
	_ = v.BindEnv("openid.client_id", "OPENID_CLIENT_ID")
	_ = v.BindEnv("openid.client_secret", "OPENID_CLIENT_SECRET")
}

// applyLiteralEnvOverrides copies the literal-named environment variables
// onto cfg when no config file was found (Unmarshal has nothing to read
// from in that path, so bound env vars must be applied by hand).
func applyLiteralEnvOverrides(v *viper.Viper, cfg *Config) {
	if s := v.GetString("grpc_port"); s != "" {
		cfg.GRPCPort = v.GetInt("grpc_port")
	}
	if s := v.GetString("api_port"); s != "" {
		cfg.APIPort = v.GetInt("api_port")
	}
	if s := v.GetString("mongo.uri"); s != "" {
		cfg.Mongo.URI = s
	}
	if s := v.GetString("redis.host"); s != "" {
		cfg.Redis.Host = s
	}
	if v.IsSet("redis.port") {
		cfg.Redis.Port = v.GetInt("redis.port")
	}
	cfg.Redis.User = v.GetString("redis.user")
	cfg.Redis.Pass = v.GetString("redis.pass")
	cfg.Redis.SSL = v.GetBool("redis.ssl")
	if s := v.GetString("queue.name"); s != "" {
		cfg.Queue.Name = s
	}
	if v.IsSet("queue.workers") {
		cfg.Queue.Workers = v.GetInt("queue.workers")
	}
	if s := v.GetString("input.provider"); s != "" {
		cfg.Input.Provider = StorageProvider(s)
	}
	cfg.Input.Bucket = v.GetString("input.bucket")
	cfg.Input.Subpath = v.GetString("input.subpath")
	if s := v.GetString("output.provider"); s != "" {
		cfg.Output.Provider = StorageProvider(s)
	}
	cfg.Output.Bucket = v.GetString("output.bucket")
	cfg.Output.Subpath = v.GetString("output.subpath")
	if s := v.GetString("openid.introspection_url"); s != "" {
		cfg.OpenID.IntrospectionURL = s
	}
	cfg.OpenID.ClientID = v.GetString("openid.client_id")
	cfg.OpenID.ClientSecret = v.GetString("openid.client_secret")
}

// readConfigFile reads the config file if present. A missing file is not an
// error — this service is fully configurable via environment alone.
func readConfigFile(v *viper.Viper, configPath string) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read config file: %w", err)
	}
	return true, nil
}

// SaveConfig writes cfg to path as YAML, creating the parent directory if
// needed.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
