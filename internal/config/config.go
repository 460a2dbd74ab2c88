package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envStorageProvider       = "STORAGE_PROVIDER"
	envStorageEndpoint       = "STORAGE_ENDPOINT"
	envStorageRegion         = "STORAGE_REGION"
	envStorageAccessKeyID    = "STORAGE_ACCESS_KEY_ID"
	envStorageSecretKey      = "STORAGE_SECRET_ACCESS_KEY"
	envStorageForcePathStyle = "STORAGE_FORCE_PATH_STYLE"
	envStoragePublicURL      = "STORAGE_PUBLIC_URL"
	envStorageLocalRoot      = "STORAGE_LOCAL_ROOT"
	envStorageRequestTimeout = "STORAGE_REQUEST_TIMEOUT"
	envDefaultBucket         = "DEFAULT_BUCKET"
	envListLimit             = "LIST_LIMIT"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envRateLimitRPS          = "RATE_LIMIT_RPS"
	envRateLimitBurst        = "RATE_LIMIT_BURST"
	envEnableProfiling       = "ENABLE_PROFILING"
	envTracingEnabled        = "TRACING_ENABLED"
	envTracingEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envTracingProtocol       = "OTEL_EXPORTER_OTLP_PROTOCOL"
	envTracingSampleRatio    = "TRACING_SAMPLE_RATIO"
	envTracingServiceName    = "OTEL_SERVICE_NAME"
)

const (
	ProviderS3    = "s3"
	ProviderMinIO = "minio"
	ProviderLocal = "local"
)

const (
	defaultServerPort          = "8080"
	defaultServerReadTimeout   = 10 * time.Second
	defaultServerWriteTimeout  = 60 * time.Second
	defaultServerShutdown      = 10 * time.Second
	defaultStorageProvider     = ProviderS3
	defaultStorageRegion       = "us-east-1"
	defaultLocalRoot           = "./data"
	defaultBucket              = "images"
	defaultListLimit           = 200
	defaultMaxUploadSize       = "50M"
	defaultRateLimitRPS        = 100
	defaultRateLimitBurst      = 200
	defaultTracingProtocol     = "grpc"
	defaultTracingSampleRatio  = 1.0
	defaultTracingServiceName  = "gallery-service"
	errPortRequiredFmt         = "PORT must be set"
	errListLimitFmt            = "LIST_LIMIT must be positive, got %d"
	errRateLimitFmt            = "%s must be positive, got %d"
	errPublicURLRequiredFmt    = "%s must be set when %s points at a non-AWS service; object URLs under the S3 endpoint are not public"
	errDefaultBucketFmt        = "DEFAULT_BUCKET must be set"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	App     AppConfig
	Tracing TracingConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	// EnableProfiling mounts the pprof endpoints under /debug/pprof.
	EnableProfiling bool
}

type StorageConfig struct {
	Provider        string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	PublicURL       string
	LocalRoot       string
	// RequestTimeout bounds each provider call. Zero means no bound.
	RequestTimeout time.Duration
}

type AppConfig struct {
	DefaultBucket string
	ListLimit     int
	MaxUploadSize string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Protocol    string
	SampleRatio float64
	ServiceName string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			RateLimitRPS:    getIntEnv(envRateLimitRPS, defaultRateLimitRPS),
			RateLimitBurst:  getIntEnv(envRateLimitBurst, defaultRateLimitBurst),
			EnableProfiling: getBoolEnv(envEnableProfiling, false),
		},
		Storage: StorageConfig{
			Provider:        strings.ToLower(getEnv(envStorageProvider, defaultStorageProvider)),
			Endpoint:        os.Getenv(envStorageEndpoint),
			Region:          getEnv(envStorageRegion, defaultStorageRegion),
			AccessKeyID:     os.Getenv(envStorageAccessKeyID),
			SecretAccessKey: os.Getenv(envStorageSecretKey),
			ForcePathStyle:  getBoolEnv(envStorageForcePathStyle, true),
			PublicURL:       strings.TrimRight(os.Getenv(envStoragePublicURL), "/"),
			LocalRoot:       getEnv(envStorageLocalRoot, defaultLocalRoot),
			RequestTimeout:  getDurationEnv(envStorageRequestTimeout, 0),
		},
		App: AppConfig{
			DefaultBucket: getEnv(envDefaultBucket, defaultBucket),
			ListLimit:     getIntEnv(envListLimit, defaultListLimit),
			MaxUploadSize: getEnv(envMaxUploadSize, defaultMaxUploadSize),
		},
		Tracing: TracingConfig{
			Enabled:     getBoolEnv(envTracingEnabled, false),
			Endpoint:    os.Getenv(envTracingEndpoint),
			Protocol:    getEnv(envTracingProtocol, defaultTracingProtocol),
			SampleRatio: getFloatEnv(envTracingSampleRatio, defaultTracingSampleRatio),
			ServiceName: getEnv(envTracingServiceName, defaultTracingServiceName),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New(errPortRequiredFmt)
	}

	if c.App.DefaultBucket == "" {
		return errors.New(errDefaultBucketFmt)
	}

	if c.App.ListLimit <= 0 {
		return fmt.Errorf(errListLimitFmt, c.App.ListLimit)
	}

	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf(errRateLimitFmt, envRateLimitRPS, c.Server.RateLimitRPS)
	}

	if c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf(errRateLimitFmt, envRateLimitBurst, c.Server.RateLimitBurst)
	}

	switch c.Storage.Provider {
	case ProviderS3:
		// Supabase and other S3-compatible services serve public objects from a
		// different base, e.g. https://<ref>.supabase.co/storage/v1/object/public.
		if c.Storage.Endpoint != "" && c.Storage.PublicURL == "" {
			return fmt.Errorf(errPublicURLRequiredFmt, envStoragePublicURL, envStorageEndpoint)
		}
		return c.Storage.requireCredentials()
	case ProviderMinIO:
		if c.Storage.Endpoint == "" {
			return errors.New(messages.requiredEnvNotSet(envStorageEndpoint))
		}
		return c.Storage.requireCredentials()
	case ProviderLocal:
		if c.Storage.LocalRoot == "" {
			return errors.New(messages.requiredEnvNotSet(envStorageLocalRoot))
		}
		return nil
	default:
		return errors.New(messages.unsupportedValue(envStorageProvider, c.Storage.Provider))
	}
}

func (c *StorageConfig) requireCredentials() error {
	if c.AccessKeyID == "" {
		return errors.New(messages.requiredEnvNotSet(envStorageAccessKeyID))
	}

	if c.SecretAccessKey == "" {
		return errors.New(messages.requiredEnvNotSet(envStorageSecretKey))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
