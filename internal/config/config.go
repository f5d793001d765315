package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MinioConfig points result exports at an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Enabled reports whether enough is configured to reach the bucket.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Parser struct {
		HeaderWords []string `yaml:"headerWords"`
		MaxBytes    int64    `yaml:"maxBytes"`
	} `yaml:"parser"`
	Export struct {
		Dir   string      `yaml:"dir"`
		Minio MinioConfig `yaml:"minio"`
	} `yaml:"export"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as an empty
// config, so the offline commands work without one.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(err) {
		return Config{}, nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
