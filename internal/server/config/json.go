package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cryptnotes/internal/flagx"
	"github.com/dmitrijs2005/cryptnotes/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations accept
// "5m" style strings or integer nanoseconds. Absent keys keep the value
// already in Config.
type JSONConfig struct {
	EndpointAddrGRPC     string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	SessionIdleTimeout   timex.Duration `json:"session_idle_timeout"`
	SessionMaxLifetime   timex.Duration `json:"session_max_lifetime"`
	SessionPurgeInterval timex.Duration `json:"session_purge_interval"`
	LogMode              string         `json:"log_mode"`
	S3AccessKey          string         `json:"s3_access_key"`
	S3SecretKey          string         `json:"s3_secret_key"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	c := &JSONConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.LogMode, c.LogMode)
	setString(&cfg.S3AccessKey, c.S3AccessKey)
	setString(&cfg.S3SecretKey, c.S3SecretKey)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.SessionIdleTimeout.Duration != 0 {
		cfg.SessionIdleTimeout = c.SessionIdleTimeout.Duration
	}
	if c.SessionMaxLifetime.Duration != 0 {
		cfg.SessionMaxLifetime = c.SessionMaxLifetime.Duration
	}
	if c.SessionPurgeInterval.Duration != 0 {
		cfg.SessionPurgeInterval = c.SessionPurgeInterval.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
