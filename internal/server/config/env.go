package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded into the process environment when present. Variables
// already set in the environment win over the file.
const dotEnvFile = ".env"

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// parseEnv overlays config with GOPHREDDIT_* variables, after loading
// dotEnvPath (if it exists) into the environment.
func parseEnv(config *Config, dotEnvPath string) error {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	}

	strs := map[string]*string{
		"HTTP_ADDRESS":        &config.HTTPAddress,
		"BASE_URL":            &config.BaseURL,
		"DATABASE_DSN":        &config.DatabaseDSN,
		"KEYSTORE_PATH":       &config.KeyStorePath,
		"KEYSTORE_PASSPHRASE": &config.KeyStorePassphrase,
		"SMTP_HOST":           &config.SMTPHost,
		"SMTP_USER":           &config.SMTPUser,
		"SMTP_PASSWORD":       &config.SMTPPassword,
		"MAIL_FROM":           &config.MailFrom,
		"LOG_LEVEL":           &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(common.EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BCRYPT_COST":     &config.BcryptCost,
		"SMTP_PORT":       &config.SMTPPort,
		"MAIL_QUEUE_SIZE": &config.MailQueueSize,
		"MAIL_WORKERS":    &config.MailWorkers,
	}
	for name, dst := range ints {
		v, ok := lookupEnv(common.EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", common.EnvPrefix, name, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":       &config.AccessTokenTTL,
		"VERIFICATION_TOKEN_TTL": &config.VerificationTokenTTL,
		"SHUTDOWN_TIMEOUT":       &config.ShutdownTimeout,
	}
	for name, dst := range durations {
		v, ok := lookupEnv(common.EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", common.EnvPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := lookupEnv(common.EnvPrefix + "LOGIN_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sLOGIN_RATE_LIMIT: %w", common.EnvPrefix, err)
		}
		config.LoginRateLimit = f
	}

	return nil
}
