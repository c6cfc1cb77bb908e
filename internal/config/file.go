package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Keywords     []string `yaml:"keywords"`
	Sources      []string `yaml:"sources"`
	RSSFeeds     []string `yaml:"rss_feeds"`
	PollInterval string   `yaml:"poll_interval"`
	PollCron     string   `yaml:"poll_cron"`
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}
