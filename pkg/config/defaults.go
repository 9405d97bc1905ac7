package config

import "time"

// DefaultConfig returns a Config populated with this service's defaults.
// Load starts from this value and overlays file/environment settings on
// top, then ApplyDefaults fills in anything still zero.
func DefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Insecure: true,
			Profiling: ProfilingConfig{
				Enabled:  false,
				Endpoint: "http://localhost:4040",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		ShutdownTimeout: 30 * time.Second,
		GRPCPort:        9000,
		APIPort:         8080,
		Mongo: MongoConfig{
			Database: "updates",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Queue: QueueConfig{
			Name:    "updates",
			Workers: 0,
		},
		Input: StorageConfig{
			Provider: StorageLocal,
			RootDir:  "./data/input",
		},
		Output: StorageConfig{
			Provider: StorageLocal,
			RootDir:  "./data/output",
		},
		OpenID: OpenIDConfig{
			CacheTTLFloor: 5 * time.Minute,
		},
	}
	return cfg
}

// ApplyDefaults fills in any still-zero fields of cfg with the service
// defaults. Unlike DefaultConfig (a fresh value), this mutates a config
// that may have been partially populated from a file or the environment.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyMongoDefaults(&cfg.Mongo)
	applyRedisDefaults(&cfg.Redis)
	applyQueueDefaults(&cfg.Queue)
	applyStorageDefaults(&cfg.Input, "./data/input")
	applyStorageDefaults(&cfg.Output, "./data/output")
	applyOpenIDDefaults(&cfg.OpenID)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.GRPCPort == 0 {
		cfg.GRPCPort = 9000
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8080
	}
}

func applyLoggingDefaults(c *LoggingConfig) {
	if c.Level == "" {
		c.Level = "INFO"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

func applyTelemetryDefaults(c *TelemetryConfig) {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Profiling.Endpoint == "" {
		c.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(c.Profiling.ProfileTypes) == 0 {
		c.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(c *MetricsConfig) {
	if c.Port == 0 {
		c.Port = 9090
	}
}

func applyMongoDefaults(c *MongoConfig) {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Database == "" {
		c.Database = "updates"
	}
}

func applyRedisDefaults(c *RedisConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
}

func applyQueueDefaults(c *QueueConfig) {
	if c.Name == "" {
		c.Name = "updates"
	}
}

func applyStorageDefaults(c *StorageConfig, defaultRoot string) {
	if c.Provider == "" {
		c.Provider = StorageLocal
	}
	if c.Provider == StorageLocal && c.RootDir == "" {
		if c.Subpath != "" {
			c.RootDir = c.Subpath
		} else {
			c.RootDir = defaultRoot
		}
	}
}

func applyOpenIDDefaults(c *OpenIDConfig) {
	if c.CacheTTLFloor == 0 {
		c.CacheTTLFloor = 5 * time.Minute
	}
}
