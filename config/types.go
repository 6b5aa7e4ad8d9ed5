package config

// Config represents the complete configuration structure
type Config struct {
	Tracker TrackerConfig `mapstructure:"tracker"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TrackerConfig holds Tracker API connection details
type TrackerConfig struct {
	OrgID      string            `mapstructure:"org_id"`
	Token      string            `mapstructure:"token"`
	APIHost    string            `mapstructure:"api_host"`
	APIVersion string            `mapstructure:"api_version"`
	Headers    map[string]string `mapstructure:"headers"`
	// Concurrency bounds parallel requests of batch commands.
	Concurrency int `mapstructure:"concurrency"`
}

// FilterConfig contains named filter expressions, usable as presets
type FilterConfig map[string]string

// OutputConfig controls how commands print results
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
