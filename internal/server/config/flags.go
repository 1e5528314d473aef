package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophreddit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-u string     public base URL used in e-mailed links
//	-d string     PostgreSQL DSN
//	-k string     keystore path
//	-p string     keystore passphrase
//	-t duration   access token TTL (e.g. "15m")
//	-v duration   verification token TTL (e.g. "24h")
//	-s string     SMTP host; empty logs mail instead of sending it
//	-l string     log level
//
// Arguments are first filtered with flagx.FilterArgs so flags owned by other
// layers (-c) or subcommands do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-u", "-d", "-k", "-p", "-t", "-v", "-s", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.KeyStorePath, "k", config.KeyStorePath, "keystore path")
	fs.StringVar(&config.KeyStorePassphrase, "p", config.KeyStorePassphrase, "keystore passphrase")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token TTL")
	fs.DurationVar(&config.VerificationTokenTTL, "v", config.VerificationTokenTTL, "verification token TTL")
	fs.StringVar(&config.SMTPHost, "s", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
