package application

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ExportConfig defines earnings statement export configuration.
type ExportConfig struct {
	Title         string `yaml:"title"`
	CurrencyLabel string `yaml:"currency_label"`
	DefaultFormat string `yaml:"default_format"`
}

// LoadExportConfig loads export config from yaml or env.
func LoadExportConfig() (ExportConfig, error) {
	cfg := ExportConfig{
		Title:         getenvDefault("EXPORT_TITLE", "Producer Earnings Statement"),
		CurrencyLabel: getenvDefault("EXPORT_CURRENCY_LABEL", "credits"),
		DefaultFormat: getenvDefault("EXPORT_DEFAULT_FORMAT", "csv"),
	}

	if path := os.Getenv("EXPORT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	switch cfg.DefaultFormat {
	case "csv", "xlsx", "pdf":
	default:
		return cfg, errors.New("export config: unsupported default format")
	}
	if cfg.Title == "" {
		return cfg, errors.New("export config: title required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
