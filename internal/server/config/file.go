package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophreddit/internal/flagx"
	"github.com/dmitrijs2005/gophreddit/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Zero values leave the current setting untouched.
type FileConfig struct {
	HTTPAddress          string         `json:"http_address" yaml:"http_address"`
	BaseURL              string         `json:"base_url" yaml:"base_url"`
	DatabaseDSN          string         `json:"database_dsn" yaml:"database_dsn"`
	KeyStorePath         string         `json:"keystore_path" yaml:"keystore_path"`
	KeyStorePassphrase   string         `json:"keystore_passphrase" yaml:"keystore_passphrase"`
	AccessTokenTTL       timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	VerificationTokenTTL timex.Duration `json:"verification_token_ttl" yaml:"verification_token_ttl"`
	BcryptCost           int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	SMTPHost             string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort             int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser             string         `json:"smtp_user" yaml:"smtp_user"`
	SMTPPassword         string         `json:"smtp_password" yaml:"smtp_password"`
	MailFrom             string         `json:"mail_from" yaml:"mail_from"`
	MailQueueSize        int            `json:"mail_queue_size" yaml:"mail_queue_size"`
	MailWorkers          int            `json:"mail_workers" yaml:"mail_workers"`
	LoginRateLimit       float64        `json:"login_rate_limit" yaml:"login_rate_limit"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays config with the file named by -c/-config in args.
// The format is picked by extension: .yaml/.yml is YAML, anything else JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddress, fc.HTTPAddress)
	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.KeyStorePath, fc.KeyStorePath)
	setString(&c.KeyStorePassphrase, fc.KeyStorePassphrase)
	setString(&c.SMTPHost, fc.SMTPHost)
	setString(&c.SMTPUser, fc.SMTPUser)
	setString(&c.SMTPPassword, fc.SMTPPassword)
	setString(&c.MailFrom, fc.MailFrom)
	setString(&c.LogLevel, fc.LogLevel)

	if fc.AccessTokenTTL.Duration != 0 {
		c.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	if fc.VerificationTokenTTL.Duration != 0 {
		c.VerificationTokenTTL = fc.VerificationTokenTTL.Duration
	}
	if fc.ShutdownTimeout.Duration != 0 {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	if fc.SMTPPort != 0 {
		c.SMTPPort = fc.SMTPPort
	}
	if fc.MailQueueSize != 0 {
		c.MailQueueSize = fc.MailQueueSize
	}
	if fc.MailWorkers != 0 {
		c.MailWorkers = fc.MailWorkers
	}
	if fc.LoginRateLimit != 0 {
		c.LoginRateLimit = fc.LoginRateLimit
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
