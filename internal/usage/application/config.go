package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// NotifyConfig controls breach notification delivery.
type NotifyConfig struct {
	// WebhookURL receives a copy of every recorded breach. Empty
	// disables webhook delivery.
	WebhookURL string
	// MinRenotifyInterval suppresses a period's repeat notification
	// when one was recorded within the interval. Zero disables
	// suppression: every check that finds a breach records it.
	MinRenotifyInterval time.Duration
	// Timezone anchors daily and monthly windows to local midnight.
	Timezone *time.Location
}

type notifyConfigFile struct {
	WebhookURL          string `yaml:"webhook_url"`
	MinRenotifyInterval string `yaml:"min_renotify_interval"`
	Timezone            string `yaml:"timezone"`
}

// LoadNotifyConfig reads notification settings from env, optionally
// overridden by the yaml file named in USAGE_NOTIFY_CONFIG.
func LoadNotifyConfig() (NotifyConfig, error) {
	file := notifyConfigFile{
		WebhookURL:          os.Getenv("USAGE_WEBHOOK_URL"),
		MinRenotifyInterval: os.Getenv("USAGE_MIN_RENOTIFY_INTERVAL"),
		Timezone:            os.Getenv("TIMEZONE"),
	}

	if path := os.Getenv("USAGE_NOTIFY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return NotifyConfig{}, err
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return NotifyConfig{}, err
		}
	}

	cfg := NotifyConfig{
		WebhookURL: file.WebhookURL,
		Timezone:   time.Local,
	}
	if file.MinRenotifyInterval != "" {
		interval, err := time.ParseDuration(file.MinRenotifyInterval)
		if err != nil {
			return NotifyConfig{}, fmt.Errorf("notify config: bad min_renotify_interval: %w", err)
		}
		if interval < 0 {
			return NotifyConfig{}, fmt.Errorf("notify config: negative min_renotify_interval")
		}
		cfg.MinRenotifyInterval = interval
	}
	if file.Timezone != "" {
		loc, err := time.LoadLocation(file.Timezone)
		if err != nil {
			return NotifyConfig{}, fmt.Errorf("notify config: bad timezone: %w", err)
		}
		cfg.Timezone = loc
	}
	return cfg, nil
}
