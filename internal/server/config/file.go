package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/flowrev/internal/flagx"
	"github.com/dmitrijs2005/flowrev/internal/timex"
)

// fileConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted. Only
// keys present in the file override the current values.
type fileConfig struct {
	Env               string         `json:"env" yaml:"env"`
	HTTPAddr          string         `json:"http_addr" yaml:"http_addr"`
	PublicBaseURL     string         `json:"public_base_url" yaml:"public_base_url"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	StorageBackend    string         `json:"storage" yaml:"storage"`
	DatabaseDSN       string         `json:"database_dsn" yaml:"database_dsn"`
	AttachmentBackend string         `json:"attachments" yaml:"attachments"`
	UploadDir         string         `json:"upload_dir" yaml:"upload_dir"`
	MaxUploadSize     int64          `json:"max_upload_size" yaml:"max_upload_size"`
	S3BaseEndpoint    string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3Region          string         `json:"s3_region" yaml:"s3_region"`
	S3Bucket          string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3AccessKey       string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3UsePathStyle    *bool          `json:"s3_use_path_style" yaml:"s3_use_path_style"`
	RedisURL          string         `json:"redis_url" yaml:"redis_url"`
	CacheTTL          timex.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	LogFormat         string         `json:"log_format" yaml:"log_format"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays values from the file given with -c/-config. The format
// is chosen by extension: .yml/.yaml for YAML, anything else is JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.Env, fc.Env)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.PublicBaseURL, fc.PublicBaseURL)
	if fc.ShutdownTimeout.Duration != 0 {
		cfg.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	setString(&cfg.StorageBackend, fc.StorageBackend)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.AttachmentBackend, fc.AttachmentBackend)
	setString(&cfg.UploadDir, fc.UploadDir)
	if fc.MaxUploadSize != 0 {
		cfg.MaxUploadSize = fc.MaxUploadSize
	}
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	if fc.S3UsePathStyle != nil {
		cfg.S3UsePathStyle = *fc.S3UsePathStyle
	}
	setString(&cfg.RedisURL, fc.RedisURL)
	if fc.CacheTTL.Duration != 0 {
		cfg.CacheTTL = fc.CacheTTL.Duration
	}
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.LogLevel, fc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
