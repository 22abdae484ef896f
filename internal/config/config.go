package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"model-version-registry/internal/core/domain"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Registry   RegistryConfig
	Kubernetes KubernetesConfig
	Predictor  PredictorConfig
	Logger     LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RegistryConfig struct {
	// Store is "postgres" or "memory".
	Store              string
	Project            string
	Location           string
	FirstVersionPolicy domain.FirstVersionPolicy
	WriteTimeout       time.Duration
	// CacheTTL enables the snapshot cache when > 0. Only safe with a single
	// server replica.
	CacheTTL time.Duration
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	DefaultNS      string
}

type PredictorConfig struct {
	Timeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "model_registry")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REGISTRY_STORE", "postgres")
	v.SetDefault("REGISTRY_PROJECT", "local")
	v.SetDefault("REGISTRY_LOCATION", "us-central1")
	v.SetDefault("REGISTRY_FIRST_VERSION_POLICY", string(domain.FirstVersionForceDefault))
	v.SetDefault("REGISTRY_WRITE_TIMEOUT", "10s")
	v.SetDefault("REGISTRY_CACHE_TTL", "0s")
	v.SetDefault("K8S_ENABLED", false)
	v.SetDefault("K8S_IN_CLUSTER", false)
	v.SetDefault("K8S_KUBECONFIG", "")
	v.SetDefault("K8S_DEFAULT_NAMESPACE", "model-serving")
	v.SetDefault("PREDICTOR_TIMEOUT", "30s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	policy, err := domain.ParseFirstVersionPolicy(v.GetString("REGISTRY_FIRST_VERSION_POLICY"))
	if err != nil {
		return nil, err
	}

	store := v.GetString("REGISTRY_STORE")
	if store != "postgres" && store != "memory" {
		return nil, fmt.Errorf("invalid REGISTRY_STORE %q: want postgres or memory", store)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durationOr(v, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Registry: RegistryConfig{
			Store:              store,
			Project:            v.GetString("REGISTRY_PROJECT"),
			Location:           v.GetString("REGISTRY_LOCATION"),
			FirstVersionPolicy: policy,
			WriteTimeout:       durationOr(v, "REGISTRY_WRITE_TIMEOUT", 10*time.Second),
			CacheTTL:           durationOr(v, "REGISTRY_CACHE_TTL", 0),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("K8S_ENABLED"),
			InCluster:      v.GetBool("K8S_IN_CLUSTER"),
			KubeConfigPath: v.GetString("K8S_KUBECONFIG"),
			DefaultNS:      v.GetString("K8S_DEFAULT_NAMESPACE"),
		},
		Predictor: PredictorConfig{
			Timeout: durationOr(v, "PREDICTOR_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
