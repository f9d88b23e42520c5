package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadEngineConfig loads the engine config from the given path, or from
// environment variables when the path is nil.
func LoadEngineConfig(configPath *string) (*EngineConfig, error) {
	v := viper.New()

	if configPath == nil {
		// if no file expect envs
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	} else {
		config, err := loadFile(v, *configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load file config: %w", err)
		}
		return config, nil
	}
}

func loadEnv(v *viper.Viper) (*EngineConfig, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systemd or other means, so skip error
	_ = godotenv.Load()
	v.SetEnvPrefix("SWAPCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config EngineConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "use_otlp_traces", "otlp_traces_url",
		"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
		"enable_logs", "use_otlp_logs", "otlp_logs_url",
		"insecure_otlp", "development_mode",
		"quoter_urls", "balances_url", "slippage_bps",
		"chains_file", "token_list_urls",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*EngineConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config EngineConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyConfig(config *EngineConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if len(config.QuoterURLs) == 0 {
		return fmt.Errorf("quoter_urls is required")
	}

	for _, url := range config.QuoterURLs {
		if url == "" {
			return fmt.Errorf("quoter_urls must not be empty")
		}
	}

	if config.SlippageBps < 0 || config.SlippageBps > 5000 {
		return fmt.Errorf("slippage_bps must be between 0 and 5000")
	}

	return nil
}
