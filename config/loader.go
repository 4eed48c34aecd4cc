package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSearchDirs are the directories searched for config.yaml.
var DefaultSearchDirs = []string{"./configs", "."}

// legacyEnv maps config keys to the environment variable names the
// deployment scripts already export.
var legacyEnv = map[string]string{
	"smtp.server":   "SMTP_SERVER",
	"smtp.port":     "SMTP_PORT",
	"smtp.username": "SMTP_USERNAME",
	"smtp.password": "SMTP_PASSWORD",
	"smtp.from":     "SMTP_FROM_EMAIL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pricing.match_threshold", 60)
	v.SetDefault("pricing.inflation_rate", 0.05)
	v.SetDefault("pricing.gst_rate", 0.18)
	v.SetDefault("pricing.min_line_length", 10)
	v.SetDefault("pricing.min_year", 2015)
	v.SetDefault("pricing.max_year", 0)

	v.SetDefault("catalog.file_name", "GPT_Input_DB.xlsx")
	v.SetDefault("catalog.search_dirs", []string{".", "..", "../.."})

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.default_title", "Road Safety Audit Cost Estimate")
	v.SetDefault("report.default_project", "Highway Safety Improvement")

	v.SetDefault("smtp.server", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.fallback_port", 465)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads config.yaml from the first of dirs that has one (DefaultSearchDirs
// when dirs is empty), applies environment overrides and validates the
// result. A missing config file is not an error.
func Load(dirs ...string) (*Config, error) {
	if len(dirs) == 0 {
		dirs = DefaultSearchDirs
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.SMTP.Password = strings.TrimSpace(cfg.SMTP.Password)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile loads the first .env found in the working directory, its
// parents or the module root. Variables already set in the environment win.
// It returns the path that was loaded, or "" when none was found.
func LoadEnvFile() string {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	return loadFirstEnv(candidates)
}

func loadFirstEnv(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// findProjectRoot walks up from the working directory to the first go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
