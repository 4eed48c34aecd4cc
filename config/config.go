// Package config loads application settings from an optional YAML file,
// a .env file and the process environment.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"roadsafetyestimator/services"
)

// Config is the root of the application configuration.
type Config struct {
	Pricing PricingConfig `mapstructure:"pricing"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Report  ReportConfig  `mapstructure:"report"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type PricingConfig struct {
	MatchThreshold int     `mapstructure:"match_threshold"`
	InflationRate  float64 `mapstructure:"inflation_rate"`
	GSTRate        float64 `mapstructure:"gst_rate"`
	MinLineLength  int     `mapstructure:"min_line_length"`
	MinYear        int     `mapstructure:"min_year"`
	MaxYear        int     `mapstructure:"max_year"` // 0 = current year
}

type CatalogConfig struct {
	FileName   string   `mapstructure:"file_name"`
	SearchDirs []string `mapstructure:"search_dirs"`
}

type ReportConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	DefaultTitle   string `mapstructure:"default_title"`
	DefaultProject string `mapstructure:"default_project"`
}

type SMTPConfig struct {
	Server       string        `mapstructure:"server"`
	Port         int           `mapstructure:"port"`
	FallbackPort int           `mapstructure:"fallback_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	From         string        `mapstructure:"from"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Tunables converts the pricing section into the pipeline's tunables.
func (c *Config) Tunables() services.Tunables {
	return services.Tunables{
		MatchThreshold: c.Pricing.MatchThreshold,
		InflationRate:  c.Pricing.InflationRate,
		GSTRate:        c.Pricing.GSTRate,
		MinLineLength:  c.Pricing.MinLineLength,
		MinYear:        c.Pricing.MinYear,
		MaxYear:        c.Pricing.MaxYear,
	}
}

// CatalogPaths lists the candidate catalog files in search order.
func (c *Config) CatalogPaths() []string {
	return services.CatalogPaths(c.Catalog.FileName, c.Catalog.SearchDirs)
}

// Mailer returns the SMTP settings in the form the mailer expects.
func (s SMTPConfig) Mailer() services.SMTPConfig {
	return services.SMTPConfig{
		Server:       s.Server,
		Port:         s.Port,
		FallbackPort: s.FallbackPort,
		Username:     s.Username,
		Password:     s.Password,
		From:         s.From,
		Timeout:      s.Timeout,
	}
}

// ReportDefaults fills the configured title and project into opts where
// the caller left them empty.
func (r ReportConfig) ReportDefaults(opts services.ReportOptions) services.ReportOptions {
	if opts.Title == "" {
		opts.Title = r.DefaultTitle
	}
	if opts.ProjectName == "" {
		opts.ProjectName = r.DefaultProject
	}
	return opts
}

func (c *Config) validate() error {
	if err := c.Tunables().Validate(); err != nil {
		return err
	}
	return validation.Errors{
		"catalog.file_name":  validation.Validate(c.Catalog.FileName, validation.Required),
		"report.output_dir":  validation.Validate(c.Report.OutputDir, validation.Required),
		"smtp.server":        validation.Validate(c.SMTP.Server, validation.Required),
		"smtp.port":          validation.Validate(c.SMTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		"smtp.fallback_port": validation.Validate(c.SMTP.FallbackPort, validation.Min(0), validation.Max(65535)),
		"logging.format":     validation.Validate(c.Logging.Format, validation.In("json", "console")),
		"logging.level":      validation.Validate(c.Logging.Level, validation.In("debug", "info", "warn", "error")),
	}.Filter()
}
