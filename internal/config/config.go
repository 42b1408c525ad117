package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	PostgresURL     string         `mapstructure:"postgres_url" validate:"required"`
	HTTPPort        string         `mapstructure:"http_port" validate:"required"`
	SQLitePath      string         `mapstructure:"sqlite_path" validate:"required"`
	LogLevel        string         `mapstructure:"log_level" validate:"required,uppercase"`
	PublicBaseURL   string         `mapstructure:"public_base_url" validate:"required,url"`
	GuardianOptions GuardianConfig `mapstructure:"guardian" validate:"required"`
	ReporterOptions ReporterConfig `mapstructure:"reporter"`
}

type GuardianConfig struct {
	SpecURL          string `mapstructure:"spec_url" validate:"required,url"`
	FetchTimeoutSecs int    `mapstructure:"fetch_timeout_secs" validate:"min=1"`
}

type ReporterConfig struct {
	GitHubToken string `mapstructure:"github_token"`
	GitHubOwner string `mapstructure:"github_owner"`
	GitHubRepo  string `mapstructure:"github_repo"`
	TimeoutSecs int    `mapstructure:"timeout_secs" validate:"min=1"`
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("postgres_url", "")
	v.SetDefault("http_port", ":8080")
	v.SetDefault("sqlite_path", "./retailboard_filters.db")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("guardian.spec_url", "https://raw.githubusercontent.com/scoutlabs/retailboard/main/specs/dashboard_end_state.yaml")
	v.SetDefault("guardian.fetch_timeout_secs", 30)
	v.SetDefault("reporter.github_token", "")
	v.SetDefault("reporter.github_owner", "")
	v.SetDefault("reporter.github_repo", "")
	v.SetDefault("reporter.timeout_secs", 60)

	v.SetEnvPrefix("RETAILBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configFile := os.Getenv("RETAILBOARD_CONFIG_PATH")
	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Info("Loading configuration from specified file", "path", configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/retailboard/")
		slog.Info("Config path not set, using default paths",
			"paths", []string{".", "./config", "/etc/retailboard/"},
			"filename", "config.yaml")
	}

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Failed to read config file", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("Configuration loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	err = v.Unmarshal(&cfg)
	if err != nil {
		slog.Error("Failed to parse configuration", "error", err)
		os.Exit(1)
	}

	validateConfig(&cfg)
	logConfig(&cfg)
	return &cfg
}

func validateConfig(cfg *Config) {
	validator := validator.New()

	err := validator.Struct(cfg)
	if err != nil {
		slog.Error("Config validation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Configuration validated successfully")
}

func logConfig(cfg *Config) {
	slog.Info("Final Configuration",
		"postgres_url", cfg.PostgresURL,
		"http_port", cfg.HTTPPort,
		"sqlite_path", cfg.SQLitePath,
		"log_level", cfg.LogLevel,
		"public_base_url", cfg.PublicBaseURL,
		"guardian", cfg.GuardianOptions,
		"reporter_repo", cfg.ReporterOptions.GitHubRepo,
		"reporter_timeout_secs", cfg.ReporterOptions.TimeoutSecs)
}
