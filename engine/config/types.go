package config

// Tags carry both forms: viper.Unmarshal decodes through mapstructure,
// direct file parsing uses toml.
type EngineConfig struct {
	// http configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Quoting source config: the first URL is the primary, the
	// rest are failover backups.
	QuoterURLs []string `toml:"quoter_urls" mapstructure:"quoter_urls"`

	// Balance/price data source config
	BalancesURL string `toml:"balances_url" mapstructure:"balances_url"`

	// Default slippage tolerance applied to resolved trades, in bps
	SlippageBps int64 `toml:"slippage_bps" mapstructure:"slippage_bps"`

	// Chain metadata file (wrapped natives, routers, reactors)
	ChainsFile string `toml:"chains_file" mapstructure:"chains_file"`

	// Token list sources fetched at startup
	TokenListURLs []string `toml:"token_list_urls" mapstructure:"token_list_urls"`

	// Feature flags
	Flags map[string]bool `toml:"flags" mapstructure:"flags"`
}
